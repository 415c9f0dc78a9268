// Package ingest orchestrates statement processing: format dispatch to a
// parser, normalization, fingerprint dedup, statement bookkeeping and the
// follow-up categorize and link jobs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bankbooks/internal/classifier"
	"bankbooks/internal/database"
	"bankbooks/internal/fingerprint"
	"bankbooks/internal/logger"
	"bankbooks/internal/models"
	"bankbooks/internal/normalize"
	"bankbooks/internal/parser"
)

// Ingestor processes statement files end to end.
type Ingestor struct {
	db  *database.DB
	cls classifier.Service
}

func New(db *database.DB, cls classifier.Service) *Ingestor {
	if cls == nil {
		cls = classifier.Disabled{}
	}
	return &Ingestor{db: db, cls: cls}
}

// Options tune one ingestion run.
type Options struct {
	// Profile names a known column layout for delimited files, skipping
	// auto-detection. Empty means detect.
	Profile string
	// SkipJobs suppresses the follow-up categorize and link jobs.
	SkipJobs bool
}

// Result summarizes one ingested statement. Skipped counts rows the parser
// saw but could not use (bad date, zero amount) plus rows that failed to
// insert for reasons other than duplication.
type Result struct {
	StatementID string
	ParserStage string
	ParserVer   string
	Found       int
	Inserted    int
	Duplicates  int
	Skipped     int
}

// Ingest parses a statement file and inserts its transactions. The
// statement row must already exist; its status moves pending -> parsing ->
// parsed or failed. A file whose every transaction is already known parses
// successfully with zero inserts. Recovering nothing at all marks the
// statement failed but is an empty outcome, not an error.
func (in *Ingestor) Ingest(ctx context.Context, stmt *models.Statement, data []byte, opts Options) (Result, error) {
	res := Result{StatementID: stmt.ID}
	log := logger.Ctx(ctx).With("statement_id", stmt.ID, "file", stmt.FileName)

	if err := in.db.MarkStatementParsing(stmt.ID); err != nil {
		return res, err
	}

	candidates, stage, ver, skipped, err := in.parse(ctx, data, opts.Profile)
	if err != nil {
		in.fail(stmt.ID, err.Error(), log)
		return res, err
	}
	res.ParserStage = stage
	res.ParserVer = ver
	res.Found = len(candidates)
	res.Skipped = skipped
	if res.Found == 0 {
		in.fail(stmt.ID, "no transactions recovered", log)
		return res, nil
	}

	account, err := in.db.GetAccount(stmt.AccountID)
	if err != nil {
		in.fail(stmt.ID, err.Error(), log)
		return res, err
	}

	seen := map[string]bool{} // fingerprints within this file
	for _, c := range candidates {
		normDesc := normalize.Description(c.Description)
		fp := fingerprint.Compute(stmt.UserID, c.Date, c.Amount, normDesc)
		if seen[fp] {
			res.Duplicates++
			continue
		}
		seen[fp] = true

		_, err := in.db.InsertTransaction(&models.Transaction{
			UserID:         stmt.UserID,
			AccountID:      stmt.AccountID,
			StatementID:    stmt.ID,
			PostedDate:     c.Date,
			Amount:         c.Amount,
			Currency:       account.Currency,
			Description:    c.Description,
			NormalizedDesc: normDesc,
			Fingerprint:    fp,
			Uncertain:      true,
		})
		switch {
		case err == nil:
			res.Inserted++
		case errors.Is(err, database.ErrDuplicate):
			res.Duplicates++
		default:
			log.Warn("transaction_insert_failed", "error", err.Error())
			res.Skipped++
		}
	}

	if err := in.db.MarkStatementParsed(stmt.ID, stage, ver, res.Found, res.Inserted); err != nil {
		return res, err
	}
	log.Info("statement_parsed",
		"parser_stage", stage,
		"found", res.Found,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"skipped", res.Skipped)

	if !opts.SkipJobs && res.Inserted > 0 {
		in.enqueueFollowUps(stmt.UserID, log)
	}
	return res, nil
}

// parse dispatches on file format and returns candidates, the name and
// version of the parser that produced them, and the number of rows the
// parser saw but could not turn into candidates.
func (in *Ingestor) parse(ctx context.Context, data []byte, profile string) ([]parser.Candidate, string, string, int, error) {
	switch {
	case parser.IsOFX(data):
		ofx, err := parser.ParseOFX(data)
		if err != nil {
			return nil, "", "", 0, fmt.Errorf("parse ofx: %w", err)
		}
		return ofx.Candidates, "ofx", "v1", ofx.Skipped, nil

	case parser.IsPDF(data):
		text, err := parser.ExtractPDFTextBytes(data)
		if err != nil {
			return nil, "", "", 0, fmt.Errorf("extract pdf text: %w", err)
		}
		stmtType := parser.DetectStatementType(text)
		chain := parser.ChainFor(stmtType)
		if stmtType != parser.TypeGeneric {
			chain = append(chain, in.extractionStage(ctx))
		}
		candidates, winner, ok := parser.RunChain(chain, text)
		if !ok {
			return nil, "", "", 0, nil
		}
		return candidates, winner.Name, winner.Version, 0, nil

	default:
		res := parser.ParseDelimited(string(data), profile)
		return res.Candidates, "delimited", "v1", res.Skipped, nil
	}
}

// extractionStage wraps the external extractor as the final chain stage.
// Generic bank statements never reach it; their tabular text parses locally
// and the raw text stays out of the external service.
func (in *Ingestor) extractionStage(ctx context.Context) parser.Strategy {
	return parser.Strategy{
		Name:    "ai_extraction",
		Version: classifier.ParserVersion,
		Parse: func(text string) []parser.Candidate {
			extracted := in.cls.Extract(ctx, text)
			candidates := make([]parser.Candidate, 0, len(extracted))
			for _, e := range extracted {
				date, ok := normalize.Date(e.Date)
				if !ok || e.Amount <= 0 {
					continue
				}
				amount := -e.Amount
				if e.Credit {
					amount = e.Amount
				}
				candidates = append(candidates, parser.Candidate{
					Date:        date,
					Description: e.Description,
					Amount:      amount,
				})
			}
			return candidates
		},
	}
}

func (in *Ingestor) fail(stmtID, msg string, log *slog.Logger) {
	if err := in.db.MarkStatementFailed(stmtID, msg); err != nil {
		log.Warn("statement_fail_update_failed", "error", err.Error())
	}
	log.Warn("statement_failed", "error", msg)
}

func (in *Ingestor) enqueueFollowUps(userID string, log *slog.Logger) {
	payload := map[string]string{"user_id": userID}
	for _, jobType := range []string{"categorize", "link_transactions"} {
		if _, err := in.db.EnqueueJob(jobType, payload); err != nil {
			log.Warn("enqueue_failed", "job_type", jobType, "error", err.Error())
		}
	}
}
