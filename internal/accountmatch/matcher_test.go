package accountmatch

import (
	"testing"

	"bankbooks/internal/models"
)

func testAccounts() []models.Account {
	return []models.Account{
		{
			ID:   1,
			Name: "HDFC Savings",
			Type: models.AccountTypeBank,
			Metadata: models.AccountMetadata{
				StatementMarkers: []string{"account no 50100123456"},
			},
		},
		{
			ID:   2,
			Name: "Axis Credit Card",
			Type: models.AccountTypeCard,
			Metadata: models.AccountMetadata{
				CardSuffix:       "4532",
				FilenamePatterns: []string{"axis_cc"},
			},
		},
	}
}

func TestResolveCardSuffix(t *testing.T) {
	m, ok := Resolve("statement_4532_mar.pdf", "", testAccounts(), 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Account.ID != 2 || m.Method != "card_suffix" {
		t.Errorf("got account %d via %s, want 2 via card_suffix", m.Account.ID, m.Method)
	}
}

func TestResolveFilenamePattern(t *testing.T) {
	m, ok := Resolve("AXIS_CC_march.csv", "", testAccounts(), 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Account.ID != 2 {
		t.Errorf("got account %d, want 2", m.Account.ID)
	}
}

func TestResolveStatementMarker(t *testing.T) {
	text := "HDFC BANK\nAccount No 50100123456\nDate Narration ..."
	m, ok := Resolve("download.pdf", text, testAccounts(), 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Account.ID != 1 || m.Method != "statement_marker" {
		t.Errorf("got account %d via %s, want 1 via statement_marker", m.Account.ID, m.Method)
	}
}

func TestResolveFuzzyFilename(t *testing.T) {
	// "hdfc" and "savings" survive token filtering; "statement", "mar" and
	// "2024" are dropped.
	m, ok := Resolve("hdfc_savings_statement_mar_2024.csv", "", testAccounts(), 0)
	if !ok {
		t.Fatal("expected a fuzzy match")
	}
	if m.Account.ID != 1 || m.Method != "fuzzy" {
		t.Errorf("got account %d via %s, want 1 via fuzzy", m.Account.ID, m.Method)
	}
	if m.Score < FuzzyThreshold {
		t.Errorf("score %v below threshold", m.Score)
	}
}

func TestResolveBelowThresholdFails(t *testing.T) {
	// A single shared word scores 0.6, under the 0.7 threshold.
	accounts := []models.Account{{ID: 3, Name: "HDFC Salary Account"}}
	if _, ok := Resolve("hdfc_other_thing.csv", "", accounts, 0); ok {
		t.Error("0.6 score must not clear the 0.7 threshold")
	}
}

func TestResolveNothing(t *testing.T) {
	if _, ok := Resolve("random.csv", "no markers here", testAccounts(), 0); ok {
		t.Error("expected no match")
	}
}

func TestSuggestFromCatalog(t *testing.T) {
	text := "Welcome to your SBI Card monthly statement. Visit sbicard.com"
	s, ok := Suggest("statement.pdf", text)
	if !ok {
		t.Fatal("expected a suggestion")
	}
	if s.Name != "SBI Card" || s.Type != models.AccountTypeCard {
		t.Errorf("got %q/%q, want SBI Card/card", s.Name, s.Type)
	}
}

func TestSuggestNothing(t *testing.T) {
	if _, ok := Suggest("notes.txt", "grocery list"); ok {
		t.Error("expected no suggestion")
	}
}

func TestFilenameTokens(t *testing.T) {
	got := filenameTokens("HDFC_Statement_Mar_2024_copy.csv")
	want := []string{"hdfc"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("filenameTokens = %v, want %v", got, want)
	}
}
