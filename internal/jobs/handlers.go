// Package jobs runs the deferred passes that follow an ingestion:
// categorization and transaction linking. Both are queued per user and
// processed by a polling worker, so a burst of uploads coalesces into a few
// whole-ledger passes.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"bankbooks/internal/classifier"
	"bankbooks/internal/database"
	"bankbooks/internal/linker"
	"bankbooks/internal/models"
	"bankbooks/internal/rules"
)

// UserPayload is the JSON payload shared by the per-user pass jobs.
type UserPayload struct {
	UserID string `json:"user_id"`
}

// CategorizeHandler returns the handler for categorize jobs. It runs the
// rule engine over every unresolved transaction of the user.
func CategorizeHandler(cls classifier.Service) Handler {
	return func(ctx context.Context, job *models.Job, db *database.DB) error {
		var payload UserPayload
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}

		engine := rules.NewEngine(db, cls)
		stats, err := engine.CategorizeAll(ctx, payload.UserID)
		if err != nil {
			return fmt.Errorf("categorize: %w", err)
		}

		resultJSON, _ := json.Marshal(map[string]int{
			"scanned":    stats.Scanned,
			"by_mapping": stats.ByMapping,
			"by_rule":    stats.ByRule,
			"by_ai":      stats.ByAI,
			"unresolved": stats.Unresolved,
		})
		db.CompleteJob(job.ID, string(resultJSON))
		return nil
	}
}

// LinkHandler returns the handler for link_transactions jobs. It links card
// payments first, then auto-links high-confidence transfers within the
// given day window (zero or less means the default).
func LinkHandler(transferWindowDays int) Handler {
	return func(ctx context.Context, job *models.Job, db *database.DB) error {
		var payload UserPayload
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}

		l := linker.New(db)
		cardLinks, err := l.MatchCardPayments(ctx, payload.UserID)
		if err != nil {
			return fmt.Errorf("match card payments: %w", err)
		}
		transfers, err := l.AutoLink(ctx, payload.UserID, transferWindowDays)
		if err != nil {
			return fmt.Errorf("auto link: %w", err)
		}

		resultJSON, _ := json.Marshal(map[string]int{
			"card_payments": cardLinks,
			"transfers":     transfers,
		})
		db.CompleteJob(job.ID, string(resultJSON))
		return nil
	}
}
