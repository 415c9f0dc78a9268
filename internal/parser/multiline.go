package parser

import (
	"regexp"
	"strings"

	"bankbooks/internal/normalize"
)

// Some issuers split each transaction across three physical lines: the date
// alone, then the description, then the amount with an optional Dr/Cr
// marker. ParseMultiline walks the text with a three-line window and emits a
// candidate whenever a block matches that shape.
var (
	bareDateLineRe   = regexp.MustCompile(`^(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}[- ][A-Za-z]{3}[- ]\d{2,4})$`)
	bareAmountLineRe = regexp.MustCompile(`(?i)^(\(?[\d,]+\.\d{2}\)?)\s*(dr|cr)?\.?$`)
)

func ParseMultiline(text string) []Candidate {
	var candidates []Candidate

	lines := strings.Split(text, "\n")
	for i := 0; i+2 < len(lines); i++ {
		dateLine := strings.TrimSpace(lines[i])
		descLine := strings.TrimSpace(lines[i+1])
		amountLine := strings.TrimSpace(lines[i+2])

		if !bareDateLineRe.MatchString(dateLine) {
			continue
		}
		if descLine == "" || bareDateLineRe.MatchString(descLine) || bareAmountLineRe.MatchString(descLine) {
			continue
		}
		am := bareAmountLineRe.FindStringSubmatch(amountLine)
		if am == nil {
			continue
		}

		date, ok := normalize.Date(dateLine)
		if !ok {
			continue
		}
		amount := normalize.Amount(amountLine)
		if amount == 0 {
			continue
		}
		if am[2] == "" && amount > 0 {
			amount = -amount
		}

		candidates = append(candidates, Candidate{
			Date:        date,
			Description: descLine,
			Amount:      amount,
		})
		i += 2 // consume the block
	}
	return candidates
}
