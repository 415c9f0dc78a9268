package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"bankbooks/internal/database"
	"bankbooks/internal/models"

	"github.com/google/uuid"
)

const sampleCSV = `Date,Narration,Withdrawal Amt,Deposit Amt
01/03/2024,UPI SWIGGY BANGALORE,450.00,
02/03/2024,SALARY CREDIT ACME CORP,,50000.00
03/03/2024,ATM WDL MG ROAD,2000.00,
`

type fixture struct {
	db       *database.DB
	ingestor *Ingestor
	accID    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	accID, err := db.CreateAccount(&models.Account{
		UserID: "u1", Name: "HDFC Savings", Type: models.AccountTypeBank, Currency: "INR",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return &fixture{db: db, ingestor: New(db, nil), accID: accID}
}

func (f *fixture) newStatement(t *testing.T, fileName string) *models.Statement {
	t.Helper()
	stmt := &models.Statement{
		ID:        uuid.NewString(),
		UserID:    "u1",
		AccountID: f.accID,
		FileName:  fileName,
	}
	if err := f.db.CreateStatement(stmt); err != nil {
		t.Fatalf("create statement: %v", err)
	}
	return stmt
}

func TestIngestCSV(t *testing.T) {
	f := newFixture(t)
	stmt := f.newStatement(t, "hdfc_mar.csv")

	res, err := f.ingestor.Ingest(context.Background(), stmt, []byte(sampleCSV), Options{SkipJobs: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Found != 3 || res.Inserted != 3 || res.Duplicates != 0 {
		t.Errorf("result = %+v, want 3 found, 3 inserted", res)
	}

	stored, err := f.db.GetStatement(stmt.ID)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if stored.Status != models.StatementStatusParsed {
		t.Errorf("status = %s, want parsed", stored.Status)
	}
	if stored.ParserStage != "delimited" || stored.TxnsInserted != 3 {
		t.Errorf("statement metadata = %+v", stored)
	}

	stmts, err := f.db.ListStatements("u1")
	if err != nil {
		t.Fatalf("list statements: %v", err)
	}
	if len(stmts) != 1 || stmts[0].ID != stmt.ID {
		t.Errorf("statements = %+v, want the ingested one", stmts)
	}

	txns, err := f.db.ListTransactions("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d transactions", len(txns))
	}
	// Newest first; the salary credit is positive, the rest negative.
	for _, txn := range txns {
		if txn.PostedDate == "2024-03-02" && txn.Amount != 50000.00 {
			t.Errorf("salary amount = %v", txn.Amount)
		}
		if txn.PostedDate == "2024-03-01" && txn.Amount != -450.00 {
			t.Errorf("swiggy amount = %v", txn.Amount)
		}
	}
}

func TestReingestAllDuplicatesIsNotFailure(t *testing.T) {
	f := newFixture(t)
	first := f.newStatement(t, "hdfc_mar.csv")
	if _, err := f.ingestor.Ingest(context.Background(), first, []byte(sampleCSV), Options{SkipJobs: true}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Same file uploaded again under a new statement row.
	second := f.newStatement(t, "hdfc_mar_copy.csv")
	res, err := f.ingestor.Ingest(context.Background(), second, []byte(sampleCSV), Options{SkipJobs: true})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if res.Inserted != 0 || res.Duplicates != 3 {
		t.Errorf("result = %+v, want 0 inserted, 3 duplicates", res)
	}

	stored, _ := f.db.GetStatement(second.ID)
	if stored.Status != models.StatementStatusParsed {
		t.Errorf("all-duplicate upload marked %s, want parsed", stored.Status)
	}
}

func TestIngestNothingRecoveredIsNonFatal(t *testing.T) {
	f := newFixture(t)
	stmt := f.newStatement(t, "noise.csv")

	res, err := f.ingestor.Ingest(context.Background(), stmt, []byte("just some words\nno table here\n"), Options{SkipJobs: true})
	if err != nil {
		t.Fatalf("empty outcome must not be an error: %v", err)
	}
	if res.Found != 0 || res.Inserted != 0 {
		t.Errorf("result = %+v, want empty", res)
	}

	stored, _ := f.db.GetStatement(stmt.ID)
	if stored.Status != models.StatementStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if stored.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}

func TestIngestCountsUnparseableRows(t *testing.T) {
	f := newFixture(t)
	stmt := f.newStatement(t, "ragged.csv")

	csv := `Date,Narration,Withdrawal Amt,Deposit Amt
01/03/2024,UPI SWIGGY BANGALORE,450.00,
not-a-date,MYSTERY ROW,100.00,
02/03/2024,ZERO VALUE ADVICE,0.00,
`
	res, err := f.ingestor.Ingest(context.Background(), stmt, []byte(csv), Options{SkipJobs: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Found != 1 || res.Inserted != 1 {
		t.Errorf("result = %+v, want 1 found, 1 inserted", res)
	}
	if res.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (bad date and zero amount)", res.Skipped)
	}
}

func TestIngestIntraFileDuplicate(t *testing.T) {
	f := newFixture(t)
	stmt := f.newStatement(t, "dupes.csv")

	csv := `Date,Narration,Withdrawal Amt,Deposit Amt
01/03/2024,UPI SWIGGY BANGALORE,450.00,
01/03/2024,UPI SWIGGY BANGALORE,450.00,
`
	res, err := f.ingestor.Ingest(context.Background(), stmt, []byte(csv), Options{SkipJobs: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Inserted != 1 || res.Duplicates != 1 {
		t.Errorf("result = %+v, want 1 inserted, 1 duplicate", res)
	}
}

func TestIngestEnqueuesFollowUpJobs(t *testing.T) {
	f := newFixture(t)
	stmt := f.newStatement(t, "hdfc_mar.csv")

	if _, err := f.ingestor.Ingest(context.Background(), stmt, []byte(sampleCSV), Options{}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	types := map[string]bool{}
	for {
		job, err := f.db.ClaimNextJob()
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if job == nil {
			break
		}
		types[job.JobType] = true
	}
	if !types["categorize"] || !types["link_transactions"] {
		t.Errorf("enqueued %v, want categorize and link_transactions", types)
	}
}
