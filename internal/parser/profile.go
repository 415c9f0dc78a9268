package parser

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile is a named column mapping for a known issuer export. Column values
// are header names, matched case-insensitively against the parsed header.
type Profile struct {
	Name   string `yaml:"name"`
	Date   string `yaml:"date"`
	Desc   string `yaml:"description"`
	Debit  string `yaml:"debit"`
	Credit string `yaml:"credit"`
	Amount string `yaml:"amount"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

var profiles = loadProfiles()

func loadProfiles() map[string]Profile {
	var f profileFile
	if err := yaml.Unmarshal(profilesYAML, &f); err != nil {
		// Seed data ships with the binary; a parse failure here is a
		// build defect, not a runtime condition.
		panic("parser: bad profiles.yaml: " + err.Error())
	}
	out := make(map[string]Profile, len(f.Profiles))
	for _, p := range f.Profiles {
		out[strings.ToLower(p.Name)] = p
	}
	return out
}

// LookupProfile returns the named profile, if one is bundled.
func LookupProfile(name string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Resolve maps the profile's column names onto the parsed header. All named
// columns must exist (case-insensitively) or the profile is rejected and the
// caller falls back to auto-detection.
func (p Profile) Resolve(header []string) (ColumnMapping, bool) {
	m := ColumnMapping{Date: -1, Desc: -1, Debit: -1, Credit: -1, Amount: -1}

	find := func(name string) int {
		if name == "" {
			return -1
		}
		for i, cell := range header {
			if strings.EqualFold(strings.TrimSpace(cell), strings.TrimSpace(name)) {
				return i
			}
		}
		return -2 // named but missing
	}

	cols := []struct {
		name string
		dst  *int
	}{
		{p.Date, &m.Date},
		{p.Desc, &m.Desc},
		{p.Debit, &m.Debit},
		{p.Credit, &m.Credit},
		{p.Amount, &m.Amount},
	}
	for _, c := range cols {
		idx := find(c.name)
		if idx == -2 {
			return ColumnMapping{}, false
		}
		*c.dst = idx
	}
	if !m.Viable() {
		return ColumnMapping{}, false
	}
	return m, true
}
