// Package linker relates transactions across accounts: card-bill payments
// between a bank account and its card, and internal transfers between two of
// the user's own accounts. Card payments link automatically; transfers are
// scored and only auto-link above a confidence bar.
package linker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"bankbooks/internal/database"
	"bankbooks/internal/logger"
	"bankbooks/internal/models"
)

const (
	// CardPaymentWindowDays bounds the gap between the bank debit and the
	// card credit of one bill payment.
	CardPaymentWindowDays = 5
	// AmountTolerance is the float slack for "the same amount".
	AmountTolerance = 0.01
	// TransferWindowDays bounds the posting gap of a transfer pair.
	TransferWindowDays = 7
	// SuggestThreshold is the minimum confidence worth showing a user.
	SuggestThreshold = 50
	// AutoLinkThreshold is the confidence at which a transfer pair links
	// without user review.
	AutoLinkThreshold = 80
	// MaxSuggestions caps one suggestion batch.
	MaxSuggestions = 50
)

// Linker runs the linking passes against the store.
type Linker struct {
	db *database.DB
}

func New(db *database.DB) *Linker {
	return &Linker{db: db}
}

// genericPaymentMarkers match bank narrations of card-bill payments across
// issuers. Account metadata can extend this set per card.
var genericPaymentMarkers = []string{
	"PAYMENT RECEIVED",
	"PAYMENT CREDIT",
	"CARD PAYMENT",
	"CREDIT CARD PAYMENT",
	"BILLDESK",
	"BBPS",
	"AUTOPAY",
	"INFINITY PAYMENT",
}

// MatchCardPayments links each bank debit whose narration looks like a
// card-bill payment to every card credit of the same amount posting within
// the payment window. Already-linked transactions are skipped, so the pass
// is idempotent.
func (l *Linker) MatchCardPayments(ctx context.Context, userID string) (int, error) {
	txns, err := l.db.ListTransactions(userID)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	linked, err := l.db.LinkedTransactionIDs(userID)
	if err != nil {
		return 0, fmt.Errorf("list linked: %w", err)
	}
	markers, err := l.paymentMarkers(userID)
	if err != nil {
		return 0, err
	}

	var bankDebits, cardCredits []models.Transaction
	for _, t := range txns {
		if linked[t.ID] {
			continue
		}
		switch {
		case t.AccountType == models.AccountTypeBank && t.Amount < 0 && hasMarker(t.NormalizedDesc, markers):
			bankDebits = append(bankDebits, t)
		case t.AccountType == models.AccountTypeCard && t.Amount > 0:
			cardCredits = append(cardCredits, t)
		}
	}

	created := 0
	for _, debit := range bankDebits {
		for _, credit := range cardCredits {
			if math.Abs(math.Abs(debit.Amount)-credit.Amount) >= AmountTolerance {
				continue
			}
			gap, ok := daysBetween(debit.PostedDate, credit.PostedDate)
			if !ok || gap > CardPaymentWindowDays {
				continue
			}
			_, err := l.db.CreateLink(debit.ID, credit.ID, models.LinkTypeCardPayment, 90)
			if err == database.ErrDuplicate {
				continue
			}
			if err != nil {
				return created, fmt.Errorf("link card payment: %w", err)
			}
			created++
		}
	}

	logger.Ctx(ctx).Info("card_payment_pass_done", "user_id", userID, "linked", created)
	return created, nil
}

// paymentMarkers merges the generic marker set with per-card markers the
// user's account metadata has accumulated.
func (l *Linker) paymentMarkers(userID string) ([]string, error) {
	markers := append([]string(nil), genericPaymentMarkers...)
	accounts, err := l.db.ListAccounts(userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		for _, m := range a.Metadata.PaymentMarkers {
			if m != "" {
				markers = append(markers, strings.ToUpper(m))
			}
		}
	}
	return markers, nil
}

func hasMarker(desc string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(desc, m) {
			return true
		}
	}
	return false
}

// transferKeywords hint that a description is a self-transfer.
var transferKeywords = []string{"TRANSFER", "NEFT", "IMPS", "RTGS", "UPI", "PAYMENT", "CARD"}

// SuggestTransfers scores candidate internal-transfer pairs: a debit in one
// account and a near-equal credit in another, posted within the transfer
// window. Pairs already linked or dismissed are excluded. Results come back
// highest confidence first, above the suggestion threshold, capped.
func (l *Linker) SuggestTransfers(ctx context.Context, userID string, windowDays int) ([]models.TransferSuggestion, error) {
	if windowDays <= 0 {
		windowDays = TransferWindowDays
	}

	txns, err := l.db.ListTransactions(userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	pairs, err := l.db.LinkedPairs(userID)
	if err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}
	linked, err := l.db.LinkedTransactionIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("list linked: %w", err)
	}

	var debits, credits []models.Transaction
	for _, t := range txns {
		if linked[t.ID] {
			continue
		}
		if t.Amount < 0 {
			debits = append(debits, t)
		} else if t.Amount > 0 {
			credits = append(credits, t)
		}
	}

	var out []models.TransferSuggestion
	for _, d := range debits {
		for _, c := range credits {
			if d.AccountID == c.AccountID {
				continue
			}
			a, b := models.NormalizePair(d.ID, c.ID)
			if _, seen := pairs[[2]int64{a, b}]; seen {
				continue
			}
			conf, ok := scoreTransfer(&d, &c, windowDays)
			if !ok || conf < SuggestThreshold {
				continue
			}
			out = append(out, models.TransferSuggestion{From: d, To: c, Confidence: conf})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return math.Abs(out[i].From.Amount) > math.Abs(out[j].From.Amount)
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	logger.Ctx(ctx).Info("transfer_suggestions", "user_id", userID, "count", len(out))
	return out, nil
}

// AutoLink links every transfer suggestion at or above the auto-link
// threshold and recategorizes both sides into Transfers. A windowDays of
// zero or less uses the default transfer window. Returns the number of
// pairs linked.
func (l *Linker) AutoLink(ctx context.Context, userID string, windowDays int) (int, error) {
	suggestions, err := l.SuggestTransfers(ctx, userID, windowDays)
	if err != nil {
		return 0, err
	}
	transfers, err := l.db.GetCategoryByName("Transfers")
	if err != nil {
		return 0, err
	}

	created := 0
	used := map[int64]bool{}
	for _, s := range suggestions {
		if s.Confidence < AutoLinkThreshold {
			break // sorted descending
		}
		if used[s.From.ID] || used[s.To.ID] {
			continue
		}
		_, err := l.db.CreateLink(s.From.ID, s.To.ID, models.LinkTypeInternalTransfer, s.Confidence)
		if err == database.ErrDuplicate {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("link transfer: %w", err)
		}
		used[s.From.ID] = true
		used[s.To.ID] = true
		created++

		for _, id := range []int64{s.From.ID, s.To.ID} {
			if err := l.db.SetTransactionCategory(id, transfers.ID, nil, false); err != nil {
				return created, fmt.Errorf("recategorize transfer: %w", err)
			}
		}
	}

	logger.Ctx(ctx).Info("auto_link_pass_done", "user_id", userID, "linked", created)
	return created, nil
}

// Ignore dismisses a pair so it is never suggested again.
func (l *Linker) Ignore(txnA, txnB int64) error {
	_, err := l.db.CreateLink(txnA, txnB, models.LinkTypeIgnored, 0)
	if err == database.ErrDuplicate {
		return nil
	}
	return err
}

// Unlink removes a link, returning its transactions to the pool the passes
// and suggestions draw from.
func (l *Linker) Unlink(linkID int64) error {
	return l.db.DeleteLink(linkID)
}

// scoreTransfer scores a debit/credit pair as a transfer: 50 when the
// amounts agree within 1 percent (or one currency unit for small amounts)
// inside the window, +15 for exactly equal amounts, +15 for same-day
// posting, +5 for a transfer keyword on either side, +10 when the pair
// crosses a bank and a card.
func scoreTransfer(d, c *models.Transaction, windowDays int) (int, bool) {
	debit := math.Abs(d.Amount)
	credit := c.Amount

	tolerance := math.Max(debit*0.01, 1.0)
	if math.Abs(debit-credit) > tolerance {
		return 0, false
	}
	gap, ok := daysBetween(d.PostedDate, c.PostedDate)
	if !ok || gap > windowDays {
		return 0, false
	}

	conf := 50
	if math.Abs(debit-credit) < AmountTolerance {
		conf += 15
	}
	if gap == 0 {
		conf += 15
	}
	if hasKeyword(d.NormalizedDesc) || hasKeyword(c.NormalizedDesc) {
		conf += 5
	}
	if (d.AccountType == models.AccountTypeBank && c.AccountType == models.AccountTypeCard) ||
		(d.AccountType == models.AccountTypeCard && c.AccountType == models.AccountTypeBank) {
		conf += 10
	}
	return conf, true
}

func hasKeyword(desc string) bool {
	for _, k := range transferKeywords {
		if strings.Contains(desc, k) {
			return true
		}
	}
	return false
}

// daysBetween returns the absolute day gap between two YYYY-MM-DD dates.
func daysBetween(a, b string) (int, bool) {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return 0, false
	}
	gap := int(tb.Sub(ta).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap, true
}
