// Package normalize canonicalizes the dates, amounts and descriptions that
// come out of statement parsers. Pure functions, no I/O.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// ISO date layout used everywhere downstream.
const DateLayout = "2006-01-02"

// Fixed layouts tried before falling back to fuzzy parsing. Statements from
// the supported issuers are day-first.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"02-01-06",
	"02 Jan 2006",
	"02-Jan-2006",
	"02 Jan 06",
	"02-Jan-06",
	"02 January 2006",
	"2-Jan-2006",
	"2/1/2006",
}

// Date parses a textual date and returns it in YYYY-MM-DD form. Ambiguous
// numeric dates are read day-first. The second return is false when the
// input is not a date; callers skip the row rather than fail the file.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}

var (
	currencyPrefixRe = regexp.MustCompile(`(?i)^(rs\.?|inr|usd|gbp|eur|[$₹£€])\s*`)
	drCrSuffixRe     = regexp.MustCompile(`(?i)\s*(dr\.?|cr\.?)$`)
	numberRe         = regexp.MustCompile(`^-?\d[\d,]*(\.\d+)?$`)
)

// Amount parses an amount string into a signed value. It strips currency
// symbols and regional digit grouping (including lakh/crore grouping like
// "1,00,000.50"), honors parenthesized and leading-minus negatives, and
// converts trailing Dr/Cr markers to sign (Cr non-negative, Dr negative).
// Anything non-parseable yields zero, which callers treat as "no
// transaction".
func Amount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	drcr := ""
	if m := drCrSuffixRe.FindStringSubmatch(s); m != nil {
		drcr = strings.ToLower(strings.TrimSuffix(m[1], "."))
		s = strings.TrimSpace(drCrSuffixRe.ReplaceAllString(s, ""))
	}

	s = currencyPrefixRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}

	if !numberRe.MatchString(s) {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}

	switch drcr {
	case "cr":
		negative = false
	case "dr":
		negative = true
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f
}

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Description collapses all non-alphanumeric runs to single spaces and
// uppercases the result. The normalized form feeds both matching and the
// fingerprint, so formatting noise never changes a transaction's identity.
func Description(s string) string {
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.ToUpper(strings.TrimSpace(s))
}
