package parser

import (
	"bufio"
	"regexp"
	"strings"

	"bankbooks/internal/normalize"
)

// Per-issuer line grammars for card statement text. Each issuer lays out
// date, description and amount differently; grammars are anchored so page
// furniture never matches.
var (
	// 01/03/2024 14:23:05 SWIGGY BANGALORE            1,250.00 Cr
	hdfcCardLineRe = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+\d{2}:\d{2}(?::\d{2})?\s+(.+?)\s{2,}([\d,]+\.\d{2})\s*(Cr)?\s*$`)

	// 15/03/2024  12345678901  AMAZON PAY INDIA        540.00 CR
	iciciCardLineRe = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d{8,})\s+(.+?)\s{2,}([\d,]+\.\d{2})\s*(CR)?\s*$`)

	// 15/03/2024  MERCHANT NAME CITY                 1,299.00 Dr
	axisCardLineRe = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s{2,}([\d,]+\.\d{2})\s+(Dr|Cr)\s*$`)

	// 15 Mar 24  MERCHANT NAME                         830.00 D
	sbiCardLineRe = regexp.MustCompile(`^(\d{1,2} [A-Za-z]{3} \d{2})\s+(.+?)\s{2,}([\d,]+\.\d{2})\s+([DC])\s*$`)
)

// issuerStrategies maps a detected statement type to its line parser. The
// generic type is deliberately absent: plain bank statements never go
// through a card-issuer grammar.
var issuerStrategies = map[string]Strategy{
	TypeHDFCCard:  {Name: "hdfc_card_lines", Version: "v2", Parse: parseHDFCCard},
	TypeICICICard: {Name: "icici_card_lines", Version: "v1", Parse: parseICICICard},
	TypeAxisCard:  {Name: "axis_card_lines", Version: "v1", Parse: parseAxisCard},
	TypeSBICard:   {Name: "sbi_card_lines", Version: "v1", Parse: parseSBICard},
}

// IssuerStrategy returns the line parser registered for a statement type.
func IssuerStrategy(stmtType string) (Strategy, bool) {
	s, ok := issuerStrategies[stmtType]
	return s, ok
}

func parseHDFCCard(text string) []Candidate {
	return scanLines(text, func(line string) (Candidate, bool) {
		m := hdfcCardLineRe.FindStringSubmatch(line)
		if m == nil {
			return Candidate{}, false
		}
		return cardCandidate(m[1], m[2], m[3], m[4] != "")
	})
}

func parseICICICard(text string) []Candidate {
	return scanLines(text, func(line string) (Candidate, bool) {
		m := iciciCardLineRe.FindStringSubmatch(line)
		if m == nil {
			return Candidate{}, false
		}
		return cardCandidate(m[1], m[3], m[4], m[5] != "")
	})
}

func parseAxisCard(text string) []Candidate {
	return scanLines(text, func(line string) (Candidate, bool) {
		m := axisCardLineRe.FindStringSubmatch(line)
		if m == nil {
			return Candidate{}, false
		}
		return cardCandidate(m[1], m[2], m[3], m[4] == "Cr")
	})
}

func parseSBICard(text string) []Candidate {
	return scanLines(text, func(line string) (Candidate, bool) {
		m := sbiCardLineRe.FindStringSubmatch(line)
		if m == nil {
			return Candidate{}, false
		}
		return cardCandidate(m[1], m[2], m[3], m[4] == "C")
	})
}

// cardCandidate builds a candidate from the shared pieces of a card line:
// credits are positive, everything else is a charge.
func cardCandidate(rawDate, desc, rawAmount string, credit bool) (Candidate, bool) {
	date, ok := normalize.Date(rawDate)
	if !ok {
		return Candidate{}, false
	}
	amount := normalize.Amount(rawAmount)
	if amount == 0 {
		return Candidate{}, false
	}
	if !credit {
		amount = -amount
	}
	return Candidate{
		Date:        date,
		Description: strings.TrimSpace(desc),
		Amount:      amount,
	}, true
}

func scanLines(text string, match func(string) (Candidate, bool)) []Candidate {
	var candidates []Candidate
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		line = strings.TrimLeft(line, " \t")
		if c, ok := match(line); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
