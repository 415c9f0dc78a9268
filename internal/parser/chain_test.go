package parser

import "testing"

func TestDetectStatementType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "generic bank statement",
			text: "HDFC BANK\nDate  Narration  Withdrawal Amt.  Deposit Amt.  Closing Balance\n",
			want: TypeGeneric,
		},
		{
			name: "hdfc card",
			text: "HDFC Bank Credit Card Statement\nCard No XXXX1234\n",
			want: TypeHDFCCard,
		},
		{
			name: "sbi card",
			text: "Thank you for using your SBI Card\n",
			want: TypeSBICard,
		},
		{
			name: "unknown",
			text: "some random document\n",
			want: TypeUnknown,
		},
		{
			name: "generic wins over issuer keywords on a later page",
			text: "Closing Balance summary\n\fpage2\n\fHDFC Bank Credit Card offers inside\n",
			want: TypeGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectStatementType(tt.text); got != tt.want {
				t.Errorf("DetectStatementType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChainForIssuer(t *testing.T) {
	chain := ChainFor(TypeHDFCCard)
	if len(chain) != 3 {
		t.Fatalf("chain length = %d, want 3", len(chain))
	}
	if chain[0].Name != "hdfc_card_lines" {
		t.Errorf("first stage = %q, want issuer parser", chain[0].Name)
	}
}

func TestChainForGenericSkipsIssuerParsers(t *testing.T) {
	chain := ChainFor(TypeGeneric)
	for _, s := range chain {
		if _, isIssuer := issuerStrategies[s.Name]; isIssuer {
			t.Errorf("generic chain contains issuer stage %q", s.Name)
		}
	}
	if len(chain) != 2 {
		t.Errorf("chain length = %d, want 2", len(chain))
	}
}

func TestRunChainFirstNonEmptyWins(t *testing.T) {
	chain := []Strategy{
		{Name: "empty", Version: "v1", Parse: func(string) []Candidate { return nil }},
		{Name: "hit", Version: "v1", Parse: func(string) []Candidate {
			return []Candidate{{Date: "2024-03-01", Description: "X", Amount: -1}}
		}},
		{Name: "never", Version: "v1", Parse: func(string) []Candidate {
			t.Fatal("later stage must not run after a hit")
			return nil
		}},
	}

	candidates, stage, ok := RunChain(chain, "")
	if !ok || len(candidates) != 1 {
		t.Fatalf("RunChain ok=%v candidates=%d", ok, len(candidates))
	}
	if stage.Name != "hit" {
		t.Errorf("winning stage = %q, want hit", stage.Name)
	}
}

func TestParseHDFCCardLines(t *testing.T) {
	text := "HDFC Bank Credit Card Statement\n" +
		"01/03/2024 14:23:05  SWIGGY BANGALORE                 1,250.00\n" +
		"05/03/2024 09:10:00  PAYMENT RECEIVED THANK YOU       9,720.00 Cr\n" +
		"random footer line\n"

	got := parseHDFCCard(text)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Amount != -1250.00 {
		t.Errorf("charge amount = %v, want -1250.00", got[0].Amount)
	}
	if got[1].Amount != 9720.00 {
		t.Errorf("Cr amount = %v, want 9720.00", got[1].Amount)
	}
	if got[0].Date != "2024-03-01" {
		t.Errorf("date = %q, want 2024-03-01", got[0].Date)
	}
}

func TestParseSBICardLines(t *testing.T) {
	text := "15 Mar 24  AMAZON PAY INDIA            830.00 D\n" +
		"20 Mar 24  PAYMENT RECEIVED          5,000.00 C\n"

	got := parseSBICard(text)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Amount != -830.00 || got[1].Amount != 5000.00 {
		t.Errorf("amounts = %v/%v, want -830/5000", got[0].Amount, got[1].Amount)
	}
}

func TestParseMultiline(t *testing.T) {
	text := "Transaction details\n" +
		"02/03/2024\n" +
		"IRCTC TICKET BOOKING\n" +
		"1,540.00 Dr\n" +
		"05/03/2024\n" +
		"REFUND IRCTC\n" +
		"770.00 Cr\n" +
		"trailing junk\n"

	got := ParseMultiline(text)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Description != "IRCTC TICKET BOOKING" || got[0].Amount != -1540.00 {
		t.Errorf("first block parsed wrong: %+v", got[0])
	}
	if got[1].Amount != 770.00 {
		t.Errorf("Cr block amount = %v, want 770.00", got[1].Amount)
	}
}

func TestParseHeuristicDefaultsUnmarkedToCharge(t *testing.T) {
	text := "01/03/2024 SOME MERCHANT 500.00\n"
	got := ParseHeuristic(text)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Amount != -500.00 {
		t.Errorf("amount = %v, want -500.00", got[0].Amount)
	}
}
