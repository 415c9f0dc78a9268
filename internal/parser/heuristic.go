package parser

import (
	"bufio"
	"regexp"
	"strings"

	"bankbooks/internal/normalize"
)

// Line grammar for the generic fallback: a trailing numeric token with
// optional Dr/Cr suffix, and a date token anywhere on the line.
var (
	trailingAmountRe = regexp.MustCompile(`(?i)(\(?[\d,]+\.\d{2}\)?)\s*(dr|cr)?\.?\s*$`)
	dateTokenRe      = regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}[- ][a-z]{3}[- ]\d{2,4})\b`)
)

// ParseHeuristic scans unstructured text line by line, treating any line
// with a date token and a trailing amount as a transaction and the remaining
// tokens as its description. Unmarked amounts are read as charges; only an
// explicit Cr marker makes a line a credit.
func ParseHeuristic(text string) []Candidate {
	var candidates []Candidate

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		am := trailingAmountRe.FindStringSubmatch(line)
		if am == nil {
			continue
		}
		dm := dateTokenRe.FindString(line)
		if dm == "" {
			continue
		}
		date, ok := normalize.Date(dm)
		if !ok {
			continue
		}

		amount := normalize.Amount(strings.TrimSpace(am[1] + " " + am[2]))
		if amount == 0 {
			continue
		}
		if am[2] == "" && amount > 0 {
			amount = -amount
		}

		desc := line
		desc = strings.Replace(desc, am[0], "", 1)
		desc = strings.Replace(desc, dm, "", 1)
		desc = strings.Join(strings.Fields(desc), " ")
		if desc == "" {
			continue
		}

		candidates = append(candidates, Candidate{
			Date:        date,
			Description: desc,
			Amount:      amount,
		})
	}
	return candidates
}
