package parser

import (
	"encoding/csv"
	"strings"

	"bankbooks/internal/normalize"
)

// DelimitedResult carries the candidates recovered from a delimited file and
// the number of rows that were counted as skipped (bad date, zero amount).
type DelimitedResult struct {
	Candidates []Candidate
	Skipped    int
	Mapping    ColumnMapping
	Delimiter  rune
}

// ParseDelimited runs the structured pass over a delimited text export:
// detect the delimiter, locate the header among preamble noise, resolve the
// column mapping (profile first when one is named, auto-detection
// otherwise), then apply it row by row. If the structured pass yields
// nothing, a secondary unstructured-line scan recovers headerless or
// malformed exports. A non-viable mapping yields zero rows, not an error.
func ParseDelimited(text, profileName string) DelimitedResult {
	delim := DetectDelimiter(text)
	rows := readRows(text, delim)
	res := DelimitedResult{Delimiter: delim}
	if len(rows) == 0 {
		return res
	}

	headerRow := LocateHeader(rows)
	header := rows[headerRow]

	mapping := ColumnMapping{Date: -1, Desc: -1, Debit: -1, Credit: -1, Amount: -1}
	resolved := false
	if profileName != "" {
		if p, ok := LookupProfile(profileName); ok {
			if m, ok := p.Resolve(header); ok {
				mapping = m
				resolved = true
			}
		}
	}
	if !resolved {
		mapping = MapColumns(header)
	}
	mapping.HeaderRow = headerRow
	res.Mapping = mapping

	if !mapping.Viable() {
		// Headerless or malformed export: try the unstructured-line scan
		// before giving up with zero rows.
		res.Candidates = ParseHeuristic(text)
		return res
	}

	for _, row := range rows[headerRow+1:] {
		c, ok := mapRow(row, mapping)
		if !ok {
			if !emptyRow(row) {
				res.Skipped++
			}
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}

	if len(res.Candidates) == 0 {
		res.Candidates = ParseHeuristic(text)
	}
	return res
}

func readRows(text string, delim rune) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		rows = append(rows, rec)
	}
	return rows
}

// mapRow applies the column mapping to one data row. For split debit/credit
// columns a positive debit yields a negative amount and a positive credit a
// positive amount.
func mapRow(row []string, m ColumnMapping) (Candidate, bool) {
	date, ok := normalize.Date(cell(row, m.Date))
	if !ok {
		return Candidate{}, false
	}

	var amount float64
	if m.SplitAmounts() {
		debit := normalize.Amount(cell(row, m.Debit))
		credit := normalize.Amount(cell(row, m.Credit))
		switch {
		case debit > 0:
			amount = -debit
		case credit > 0:
			amount = credit
		}
	} else {
		amount = normalize.Amount(cell(row, m.Amount))
	}
	if amount == 0 {
		return Candidate{}, false
	}

	return Candidate{
		Date:        date,
		Description: strings.TrimSpace(cell(row, m.Desc)),
		Amount:      amount,
	}, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
