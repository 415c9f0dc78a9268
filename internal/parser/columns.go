package parser

import (
	"encoding/csv"
	"strings"
)

var delimiterCandidates = []rune{',', '\t', '|', ';'}

// DetectDelimiter sniffs the delimiter of a text export. The first pass
// probes each candidate with a CSV reader and keeps the one that produces
// the most consistent multi-column rows; if that is inconclusive it falls
// back to counting raw occurrences across the first 20 lines, requiring at
// least 5 before trusting a candidate, and defaults to comma.
func DetectDelimiter(text string) rune {
	if d, ok := probeDelimiter(text); ok {
		return d
	}

	lines := headLines(text, 20)
	best := ','
	bestCount := 0
	for _, cand := range delimiterCandidates {
		count := 0
		for _, line := range lines {
			count += strings.Count(line, string(cand))
		}
		if count > bestCount {
			best = cand
			bestCount = count
		}
	}
	if bestCount < 5 {
		return ','
	}
	return best
}

// probeDelimiter parses a sample with each candidate delimiter and scores
// field-count consistency. A candidate wins only if it splits the sample
// into a stable column count greater than one.
func probeDelimiter(text string) (rune, bool) {
	sample := strings.Join(headLines(text, 20), "\n")

	bestScore := 0
	var best rune
	for _, cand := range delimiterCandidates {
		r := csv.NewReader(strings.NewReader(sample))
		r.Comma = cand
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		counts := map[int]int{}
		rows := 0
		for {
			rec, err := r.Read()
			if err != nil {
				break
			}
			rows++
			counts[len(rec)]++
		}
		if rows == 0 {
			continue
		}
		// Score: rows agreeing on the modal column count, columns > 1 only.
		for width, n := range counts {
			if width > 1 && n > bestScore && n*2 > rows {
				bestScore = n
				best = cand
			}
		}
	}
	if bestScore == 0 {
		return 0, false
	}
	return best, true
}

func headLines(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

// Keyword lists per canonical field, in preference order. Header cells are
// matched case-insensitively by substring.
var (
	dateKeywords   = []string{"transaction date", "txn date", "value date", "posting date", "date"}
	descKeywords   = []string{"narration", "particulars", "description", "remarks", "details", "transaction remarks"}
	debitKeywords  = []string{"withdrawal amt", "withdrawal", "debit amt", "debit", "dr amount", "dr"}
	creditKeywords = []string{"deposit amt", "deposit", "credit amt", "credit", "cr amount", "cr"}
	amountKeywords = []string{"transaction amount", "amount (inr)", "amount", "amt"}
	moneyKeywords  = []string{"amount", "debit", "credit", "balance", "value", "withdrawal", "deposit"}
	looseKeywords  = []string{"amount", "debit", "credit", "balance", "value", "withdrawal", "deposit",
		"narration", "particulars", "description", "remarks", "details", "type", "mode", "ref"}
)

// ColumnMapping maps canonical fields to column indexes. -1 means absent.
// When both a split debit/credit pair and a single amount column exist the
// split pair wins.
type ColumnMapping struct {
	Date      int
	Desc      int
	Debit     int
	Credit    int
	Amount    int
	HeaderRow int
}

// Viable reports whether the mapping can drive ingestion: a date column plus
// at least one amount source (single amount, or both debit and credit).
func (m ColumnMapping) Viable() bool {
	if m.Date < 0 {
		return false
	}
	return m.Amount >= 0 || (m.Debit >= 0 && m.Credit >= 0)
}

// SplitAmounts reports whether the mapping uses separate debit/credit
// columns rather than a single signed amount.
func (m ColumnMapping) SplitAmounts() bool {
	return m.Debit >= 0 && m.Credit >= 0
}

// LocateHeader finds the header row among preamble noise. The strict pass
// scans up to 50 rows for a cell with a date-like token plus either a
// money-like or description-like cell; the loose pass scans up to 100 rows
// requiring only "date" plus any known heading. On total failure row 0 is
// assumed.
func LocateHeader(rows [][]string) int {
	limit := min(len(rows), 50)
	for i := 0; i < limit; i++ {
		if rowHasKeyword(rows[i], []string{"date"}) &&
			(rowHasKeyword(rows[i], moneyKeywords) || rowHasKeyword(rows[i], descKeywords)) {
			return i
		}
	}

	limit = min(len(rows), 100)
	for i := 0; i < limit; i++ {
		if rowHasKeyword(rows[i], []string{"date"}) && rowHasKeyword(rows[i], looseKeywords) {
			return i
		}
	}
	return 0
}

func rowHasKeyword(row []string, keywords []string) bool {
	for _, cell := range row {
		cell = strings.ToLower(strings.TrimSpace(cell))
		for _, kw := range keywords {
			if strings.Contains(cell, kw) {
				return true
			}
		}
	}
	return false
}

// MapColumns resolves the header row's cells to canonical fields.
func MapColumns(header []string) ColumnMapping {
	m := ColumnMapping{Date: -1, Desc: -1, Debit: -1, Credit: -1, Amount: -1}
	m.Date = findColumn(header, dateKeywords)
	m.Desc = findColumn(header, descKeywords)
	m.Debit = findColumn(header, debitKeywords)
	m.Credit = findColumn(header, creditKeywords)
	m.Amount = findColumn(header, amountKeywords)

	// A split debit/credit pair is more reliable than a single signed
	// column; drop the single column when both are present.
	if m.SplitAmounts() {
		m.Amount = -1
	}
	return m
}

// findColumn returns the index of the first header cell containing any
// keyword, honoring keyword preference order. Very short keywords ("dr",
// "cr") must match the whole cell; substring matching would catch words
// like "description".
func findColumn(header []string, keywords []string) int {
	for _, kw := range keywords {
		for i, cell := range header {
			cell = strings.ToLower(strings.TrimSpace(cell))
			if len(kw) <= 2 {
				if cell == kw {
					return i
				}
				continue
			}
			if strings.Contains(cell, kw) {
				return i
			}
		}
	}
	return -1
}
