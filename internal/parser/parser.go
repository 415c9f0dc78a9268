// Package parser turns raw statement files into candidate transactions.
// One strategy exists per input shape; unstructured text goes through an
// ordered fallback chain until a stage yields transactions.
package parser

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Candidate is one raw parsed transaction: ISO date, description text and a
// signed amount (negative for debits). Candidates still need normalization
// and fingerprinting before they touch the store.
type Candidate struct {
	Date        string
	Description string
	Amount      float64
}

// Strategy is one stage of the fallback chain. Parse returns the candidates
// it recovered; an empty slice means the stage failed and the chain moves
// on. Version tags end up in the statement metadata for observability.
type Strategy struct {
	Name    string
	Version string
	Parse   func(text string) []Candidate
}

// Statement type tags produced by DetectStatementType.
const (
	TypeGeneric   = "generic"
	TypeHDFCCard  = "hdfc_card"
	TypeICICICard = "icici_card"
	TypeAxisCard  = "axis_card"
	TypeSBICard   = "sbi_card"
	TypeUnknown   = "unknown"
)

// Keywords that mark a plain bank-account statement. These are table column
// headings common across bank exports; a statement matching them is handled
// generically and never sent to a card-issuer regex parser.
var genericBankKeywords = []string{
	"withdrawal amt",
	"deposit amt",
	"closing balance",
	"narration",
	"particulars",
	"chq./ref.no",
	"value dt",
}

var issuerKeywords = map[string][]string{
	TypeHDFCCard:  {"hdfc bank credit card", "hdfc bank cards", "hdfcbank.com/creditcards"},
	TypeICICICard: {"icici bank credit card", "icici card statement", "icicibank.com"},
	TypeAxisCard:  {"axis bank credit card", "axis bank statement", "axisbank.com"},
	TypeSBICard:   {"sbi card", "sbicard.com", "sbi credit card"},
}

// DetectStatementType classifies extracted statement text by scanning the
// first two pages for characteristic keywords. Generic bank statements win
// over issuer matches so they are never routed to a card parser.
func DetectStatementType(text string) string {
	head := strings.ToLower(firstPages(text, 2))

	for _, kw := range genericBankKeywords {
		if strings.Contains(head, kw) {
			return TypeGeneric
		}
	}
	for issuer, kws := range issuerKeywords {
		for _, kw := range kws {
			if strings.Contains(head, kw) {
				return issuer
			}
		}
	}
	return TypeUnknown
}

// firstPages returns up to n pages of pdftotext output (pages are separated
// by form feeds). Non-paginated text is returned whole.
func firstPages(text string, n int) string {
	pages := strings.Split(text, "\f")
	if len(pages) <= n {
		return text
	}
	return strings.Join(pages[:n], "\f")
}

// ExtractPDFText extracts layout-preserved text from a PDF on disk.
func ExtractPDFText(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(output), nil
}

// ExtractPDFTextBytes writes PDF bytes to a temp file and extracts its text.
func ExtractPDFTextBytes(data []byte) (string, error) {
	f, err := os.CreateTemp("", "stmt-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp pdf: %w", err)
	}
	f.Close()
	return ExtractPDFText(f.Name())
}

// IsPDF reports whether the bytes look like a PDF file.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// IsOFX reports whether the bytes look like an OFX document (either the
// SGML header of OFX 1.x or the XML form of 2.x).
func IsOFX(data []byte) bool {
	head := strings.ToUpper(string(data[:min(len(data), 512)]))
	return strings.Contains(head, "OFXHEADER") || strings.Contains(head, "<OFX>")
}
