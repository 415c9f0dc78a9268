package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"bankbooks/internal/accountmatch"
	"bankbooks/internal/classifier"
	"bankbooks/internal/config"
	"bankbooks/internal/database"
	"bankbooks/internal/filestore"
	"bankbooks/internal/ingest"
	"bankbooks/internal/jobs"
	"bankbooks/internal/logger"
	"bankbooks/internal/models"
	"bankbooks/internal/parser"
	"bankbooks/internal/version"
)

func main() {
	// Handle --version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("bankbooks %s (built %s, commit %s)\n",
			version.Version, version.BuildTime, version.GitCommit)
		os.Exit(0)
	}

	var (
		userID    = flag.String("user", "default", "user the statements belong to")
		accountID = flag.Int64("account", 0, "account ID to force when matching fails")
		upgradeOf = flag.Int64("upgrade-of", 0, "create a successor of this account (re-issued card) and ingest into it")
		profile   = flag.String("profile", "", "named column profile for delimited files")
	)
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ingest [-user id] [-account id] [-profile name] <statement files>")
		os.Exit(1)
	}

	logger.Init()
	log := logger.Default()
	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Error("database_open_failed", "path", cfg.DBPath, "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Init(); err != nil {
		log.Error("database_init_failed", "error", err.Error())
		os.Exit(1)
	}

	store, err := filestore.New(filepath.Join(cfg.DataDir, "statements"))
	if err != nil {
		log.Error("filestore_init_failed", "error", err.Error())
		os.Exit(1)
	}

	var cls classifier.Service = classifier.Disabled{}
	if cfg.ClassifierEnabled() {
		cls = classifier.New(cfg.ClassifierModel, cfg.ClassifierTimeout)
	}
	ingestor := ingest.New(db, cls)

	ctx := logger.WithRunID(context.Background(), logger.GenerateRunID())

	forced := *accountID
	if *upgradeOf != 0 {
		old, err := db.GetAccount(*upgradeOf)
		if err != nil {
			log.Error("upgrade_source_missing", "account_id", *upgradeOf, "error", err.Error())
			os.Exit(1)
		}
		// The successor starts with an empty metadata bag; markers for the
		// re-issued card accumulate from its own statements.
		id, err := db.UpgradeAccount(old.ID, old.Name, models.AccountMetadata{})
		if err != nil {
			log.Error("account_upgrade_failed", "account_id", old.ID, "error", err.Error())
			os.Exit(1)
		}
		log.Info("account_upgraded", "from", old.ID, "to", id)
		forced = id
	}

	failed := 0
	for _, path := range files {
		if err := ingestFile(ctx, path, *userID, forced, *profile, cfg, db, store, ingestor); err != nil {
			log.Error("ingest_failed", "file", path, "error", err.Error())
			failed++
		}
	}

	// Run the queued categorize and link passes before exiting.
	worker := jobs.NewWorker(db, log)
	worker.Register("categorize", jobs.CategorizeHandler(cls))
	worker.Register("link_transactions", jobs.LinkHandler(cfg.TransferWindowDays))
	worker.Drain()

	if failed > 0 {
		os.Exit(1)
	}
}

func ingestFile(ctx context.Context, path, userID string, forcedAccount int64, profile string,
	cfg config.Config, db *database.DB, store *filestore.Store, ingestor *ingest.Ingestor) error {

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	filename := filepath.Base(path)

	account, err := resolveAccount(filename, data, userID, forcedAccount, cfg, db)
	if err != nil {
		return err
	}

	stmt := &models.Statement{
		ID:        uuid.NewString(),
		UserID:    userID,
		AccountID: account.ID,
		FileName:  filename,
	}
	stored, err := store.Save(stmt.ID, filename, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("store file: %w", err)
	}
	stmt.FilePath = stored

	if err := db.CreateStatement(stmt); err != nil {
		return err
	}

	res, err := ingestor.Ingest(ctx, stmt, data, ingest.Options{Profile: profile})
	if err != nil {
		return err
	}
	if res.Found == 0 {
		fmt.Printf("%s -> %s: no transactions recovered\n", filename, account.Name)
		return nil
	}
	fmt.Printf("%s -> %s: %d found, %d inserted, %d duplicates (%s)\n",
		filename, account.Name, res.Found, res.Inserted, res.Duplicates, res.ParserStage)
	return nil
}

// resolveAccount routes a statement file to one of the user's accounts. A
// forced account ID wins; otherwise the matcher decides, and when nothing
// matches the issuer catalog may name the account to create.
func resolveAccount(filename string, data []byte, userID string, forcedAccount int64,
	cfg config.Config, db *database.DB) (*models.Account, error) {

	if forcedAccount != 0 {
		return db.GetAccount(forcedAccount)
	}

	accounts, err := db.ListAccounts(userID)
	if err != nil {
		return nil, err
	}

	// PDFs match on extracted text; text formats match on the raw bytes.
	text := string(data)
	if parser.IsPDF(data) {
		if extracted, err := parser.ExtractPDFTextBytes(data); err == nil {
			text = extracted
		} else {
			text = ""
		}
	}

	if m, ok := accountmatch.Resolve(filename, text, accounts, cfg.FuzzyThreshold); ok {
		logger.Default().Info("account_matched",
			"file", filename, "account", m.Account.Name, "method", m.Method)
		return m.Account, nil
	}

	if s, ok := accountmatch.Suggest(filename, text); ok {
		return nil, fmt.Errorf("no account matched %s; looks like %q (%s), create it and retry with -account", filename, s.Name, s.Type)
	}
	return nil, fmt.Errorf("no account matched %s; pass -account", filename)
}
