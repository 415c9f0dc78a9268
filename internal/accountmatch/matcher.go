// Package accountmatch resolves an uploaded statement file to the account it
// belongs to, using layered heuristics: exact metadata markers, content
// markers, then fuzzy filename matching. When nothing matches it can suggest
// a new account from a static issuer-signature catalog.
package accountmatch

import (
	_ "embed"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"bankbooks/internal/models"
)

// FuzzyThreshold is the minimum score at which a fuzzy filename match is
// accepted. Overridable through config at the call site.
const FuzzyThreshold = 0.7

// Match is a resolved account plus how it was found.
type Match struct {
	Account *models.Account
	Method  string // card_suffix, filename_pattern, statement_marker, fuzzy
	Score   float64
}

// Suggestion proposes creating a new account from the issuer catalog. The
// matcher never creates accounts itself.
type Suggestion struct {
	Name string
	Type string
}

// Resolve routes a file to one of the user's accounts. Resolution order:
// exact card-suffix or filename-pattern match from account metadata, then a
// recorded statement-marker substring in the extracted text, then fuzzy
// filename scoring against account names above the threshold.
func Resolve(filename, text string, accounts []models.Account, threshold float64) (Match, bool) {
	if threshold <= 0 {
		threshold = FuzzyThreshold
	}
	lowerName := strings.ToLower(filename)
	lowerText := strings.ToLower(text)

	for i := range accounts {
		acc := &accounts[i]
		if acc.Metadata.CardSuffix != "" && strings.Contains(lowerName, strings.ToLower(acc.Metadata.CardSuffix)) {
			return Match{Account: acc, Method: "card_suffix", Score: 1.0}, true
		}
		for _, pat := range acc.Metadata.FilenamePatterns {
			if pat != "" && strings.Contains(lowerName, strings.ToLower(pat)) {
				return Match{Account: acc, Method: "filename_pattern", Score: 1.0}, true
			}
		}
	}

	if lowerText != "" {
		for i := range accounts {
			acc := &accounts[i]
			for _, marker := range acc.Metadata.StatementMarkers {
				if marker != "" && strings.Contains(lowerText, strings.ToLower(marker)) {
					return Match{Account: acc, Method: "statement_marker", Score: 1.0}, true
				}
			}
		}
	}

	var best Match
	for i := range accounts {
		acc := &accounts[i]
		score := fuzzyScore(filename, acc.Name)
		if score > best.Score {
			best = Match{Account: acc, Method: "fuzzy", Score: score}
		}
	}
	if best.Score >= threshold {
		return best, true
	}
	return Match{}, false
}

var monthAbbrevs = map[string]bool{
	"jan": true, "feb": true, "mar": true, "apr": true, "may": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

var noiseWords = map[string]bool{
	"statement": true, "stmt": true, "account": true, "acct": true, "txn": true,
	"transactions": true, "report": true, "download": true, "final": true,
	"copy": true, "new": true, "latest": true, "the": true, "of": true, "for": true,
}

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

// filenameTokens extracts comparable tokens from an uploaded filename,
// dropping pure numbers, month abbreviations and generic noise words.
func filenameTokens(filename string) []string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	raw := tokenSplitRe.Split(base, -1)

	var tokens []string
	for _, tok := range raw {
		if tok == "" || isNumber(tok) || monthAbbrevs[tok] || noiseWords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyScore scores a filename against an account name: 1.0 for an exact
// token-set match, 0.8 when one side contains the other, 0.6 for any shared
// word.
func fuzzyScore(filename, accountName string) float64 {
	tokens := filenameTokens(filename)
	if len(tokens) == 0 {
		return 0
	}
	nameWords := tokenSplitRe.Split(strings.ToLower(accountName), -1)
	nameSet := map[string]bool{}
	for _, w := range nameWords {
		if w != "" {
			nameSet[w] = true
		}
	}
	if len(nameSet) == 0 {
		return 0
	}

	joinedTokens := strings.Join(tokens, " ")
	joinedName := strings.Join(nonEmpty(nameWords), " ")

	if joinedTokens == joinedName {
		return 1.0
	}
	if strings.Contains(joinedTokens, joinedName) || strings.Contains(joinedName, joinedTokens) {
		return 0.8
	}
	for _, tok := range tokens {
		if nameSet[tok] {
			return 0.6
		}
	}
	return 0
}

func nonEmpty(words []string) []string {
	var out []string
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

//go:embed signatures.yaml
var signaturesYAML []byte

type signature struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Markers []string `yaml:"markers"`
}

type signatureFile struct {
	Signatures []signature `yaml:"signatures"`
}

var catalog = loadCatalog()

func loadCatalog() []signature {
	var f signatureFile
	if err := yaml.Unmarshal(signaturesYAML, &f); err != nil {
		panic("accountmatch: bad signatures.yaml: " + err.Error())
	}
	return f.Signatures
}

// Suggest consults the issuer-signature catalog when no existing account
// matched, proposing (not creating) a new account. The signature with the
// most marker hits in the extracted text wins.
func Suggest(filename, text string) (Suggestion, bool) {
	haystack := strings.ToLower(text + " " + filename)

	type scored struct {
		sig  signature
		hits int
	}
	var matches []scored
	for _, sig := range catalog {
		hits := 0
		for _, marker := range sig.Markers {
			if strings.Contains(haystack, marker) {
				hits++
			}
		}
		if hits > 0 {
			matches = append(matches, scored{sig, hits})
		}
	}
	if len(matches) == 0 {
		return Suggestion{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].hits > matches[j].hits })
	best := matches[0].sig
	return Suggestion{Name: best.Name, Type: best.Type}, true
}
