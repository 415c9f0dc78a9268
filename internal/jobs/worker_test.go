package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"bankbooks/internal/classifier"
	"bankbooks/internal/database"
	"bankbooks/internal/logger"
	"bankbooks/internal/models"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return db
}

func TestDrainRunsBothPasses(t *testing.T) {
	db := openTestDB(t)

	bankID, err := db.CreateAccount(&models.Account{UserID: "u1", Name: "HDFC Savings", Type: models.AccountTypeBank, Currency: "INR"})
	if err != nil {
		t.Fatalf("create bank: %v", err)
	}
	cardID, err := db.CreateAccount(&models.Account{UserID: "u1", Name: "Axis Card", Type: models.AccountTypeCard, Currency: "INR"})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}

	// One rule-categorizable spend and one transfer pair.
	txns := []models.Transaction{
		{AccountID: bankID, PostedDate: "2024-03-01", Amount: -450, NormalizedDesc: "UPI SWIGGY BANGALORE ORDER", Fingerprint: "fp1"},
		{AccountID: bankID, PostedDate: "2024-03-05", Amount: -5000, NormalizedDesc: "IMPS TO SELF", Fingerprint: "fp2"},
		{AccountID: cardID, PostedDate: "2024-03-05", Amount: 5000, NormalizedDesc: "IMPS FROM SAVINGS", Fingerprint: "fp3"},
	}
	for i := range txns {
		txns[i].UserID = "u1"
		txns[i].Uncertain = true
		if _, err := db.InsertTransaction(&txns[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	payload := UserPayload{UserID: "u1"}
	if _, err := db.EnqueueJob("categorize", payload); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := db.EnqueueJob("link_transactions", payload); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w := NewWorker(db, logger.Default())
	w.Register("categorize", CategorizeHandler(classifier.Disabled{}))
	w.Register("link_transactions", LinkHandler(0))
	w.Drain()

	// Swiggy spend landed in Food via the seed rule.
	food, _ := db.GetCategoryByName("Food")
	all, err := db.ListTransactions("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, txn := range all {
		if txn.Fingerprint == "fp1" {
			if txn.CategoryID == nil || *txn.CategoryID != food.ID {
				t.Error("spend not categorized by rule")
			}
		}
	}

	// Transfer pair auto-linked and recategorized.
	links, err := db.ListLinks("u1")
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(links) != 1 || links[0].LinkType != models.LinkTypeInternalTransfer {
		t.Fatalf("links = %+v, want one internal_transfer", links)
	}
}

func TestLinkHandlerHonorsConfiguredWindow(t *testing.T) {
	db := openTestDB(t)

	bankID, err := db.CreateAccount(&models.Account{UserID: "u1", Name: "HDFC Savings", Type: models.AccountTypeBank, Currency: "INR"})
	if err != nil {
		t.Fatalf("create bank: %v", err)
	}
	cardID, err := db.CreateAccount(&models.Account{UserID: "u1", Name: "Axis Card", Type: models.AccountTypeCard, Currency: "INR"})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}

	// Six days apart: auto-linkable under the default window, out of reach
	// of a three-day one.
	txns := []models.Transaction{
		{AccountID: bankID, PostedDate: "2024-03-01", Amount: -5000, NormalizedDesc: "IMPS TO SELF", Fingerprint: "fp1"},
		{AccountID: cardID, PostedDate: "2024-03-07", Amount: 5000, NormalizedDesc: "IMPS FROM SAVINGS", Fingerprint: "fp2"},
	}
	for i := range txns {
		txns[i].UserID = "u1"
		if _, err := db.InsertTransaction(&txns[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, err := db.EnqueueJob("link_transactions", UserPayload{UserID: "u1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w := NewWorker(db, logger.Default())
	w.Register("link_transactions", LinkHandler(3))
	w.Drain()

	links, err := db.ListLinks("u1")
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("three-day window produced links: %+v", links)
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	db := openTestDB(t)

	id, err := db.EnqueueJob("flaky", UserPayload{UserID: "u1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w := NewWorker(db, logger.Default())
	calls := 0
	w.Register("flaky", func(ctx context.Context, job *models.Job, db *database.DB) error {
		calls++
		return errors.New("boom")
	})
	w.Drain()

	if calls != 3 {
		t.Errorf("handler ran %d times, want 3 (max attempts)", calls)
	}

	var status, result string
	if err := db.QueryRow(`SELECT status, result FROM jobs WHERE id = ?`, id).Scan(&status, &result); err != nil {
		t.Fatalf("query: %v", err)
	}
	if status != "failed" || result != "boom" {
		t.Errorf("job ended %s/%s, want failed/boom", status, result)
	}
}

func TestCategorizeHandlerResult(t *testing.T) {
	db := openTestDB(t)
	id, err := db.EnqueueJob("categorize", UserPayload{UserID: "u1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	job, err := db.ClaimNextJob()
	if err != nil || job == nil {
		t.Fatalf("claim: %v %v", job, err)
	}

	handler := CategorizeHandler(classifier.Disabled{})
	if err := handler(context.Background(), job, db); err != nil {
		t.Fatalf("handler: %v", err)
	}

	var result string
	if err := db.QueryRow(`SELECT result FROM jobs WHERE id = ?`, id).Scan(&result); err != nil {
		t.Fatalf("query: %v", err)
	}
	var stats map[string]int
	if err := json.Unmarshal([]byte(result), &stats); err != nil {
		t.Fatalf("result not JSON: %q", result)
	}
	if stats["scanned"] != 0 {
		t.Errorf("scanned = %d, want 0", stats["scanned"])
	}
}
