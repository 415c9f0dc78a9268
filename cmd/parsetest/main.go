package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bankbooks/internal/parser"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: parsetest <path-to-statement>")
		os.Exit(1)
	}

	path := os.Args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	var candidates []parser.Candidate
	var stage string

	switch {
	case parser.IsOFX(data):
		res, err := parser.ParseOFX(data)
		if err != nil {
			fmt.Printf("Error parsing OFX: %v\n", err)
			os.Exit(1)
		}
		candidates = res.Candidates
		stage = "ofx"
		fmt.Printf("Format: OFX (currency %s, %d skipped)\n", res.Currency, res.Skipped)

	case parser.IsPDF(data):
		text, err := parser.ExtractPDFTextBytes(data)
		if err != nil {
			fmt.Printf("Error extracting PDF text: %v\n", err)
			os.Exit(1)
		}
		stmtType := parser.DetectStatementType(text)
		fmt.Printf("Format: PDF, detected type: %s\n", stmtType)

		chain := parser.ChainFor(stmtType)
		fmt.Println("\nChain stages:")
		for _, s := range chain {
			fmt.Printf("  %s (%s): %d candidates\n", s.Name, s.Version, len(s.Parse(text)))
		}

		got, winner, ok := parser.RunChain(chain, text)
		if !ok {
			fmt.Println("\nNo stage recovered any transactions")
			os.Exit(1)
		}
		candidates = got
		stage = winner.Name

	default:
		res := parser.ParseDelimited(string(data), "")
		candidates = res.Candidates
		stage = "delimited"
		fmt.Printf("Format: delimited (delimiter %q, header row %d, %d skipped)\n",
			res.Delimiter, res.Mapping.HeaderRow, res.Skipped)
	}

	fmt.Printf("\nWinning stage: %s\n", stage)
	fmt.Printf("File: %s\n", filepath.Base(path))
	fmt.Printf("Transactions: %d\n\n", len(candidates))

	var totalCredits, totalDebits float64
	for _, c := range candidates {
		fmt.Printf("  %s | %10.2f | %s\n", c.Date, c.Amount, truncate(c.Description, 60))
		if c.Amount > 0 {
			totalCredits += c.Amount
		} else {
			totalDebits += c.Amount
		}
	}

	fmt.Println("\nTotals:")
	fmt.Printf("  Credits: %10.2f\n", totalCredits)
	fmt.Printf("  Debits:  %10.2f\n", totalDebits)
	fmt.Printf("  Net:     %10.2f\n", totalCredits+totalDebits)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
