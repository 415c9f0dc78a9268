package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Account types
const (
	AccountTypeBank = "bank"
	AccountTypeCard = "card"
	AccountTypeCash = "cash"
)

// Link types
const (
	LinkTypeCardPayment      = "card_payment"
	LinkTypeInternalTransfer = "internal_transfer"
	LinkTypeIgnored          = "ignored"
)

// Statement lifecycle statuses
const (
	StatementStatusPending = "pending"
	StatementStatusParsing = "parsing"
	StatementStatusParsed  = "parsed"
	StatementStatusFailed  = "failed"
)

// AccountMetadata is the refinement bag attached to an account. It
// accumulates markers observed in the account's own history and is consulted
// by the account matcher and the linker.
type AccountMetadata struct {
	CardSuffix       string   `json:"card_suffix,omitempty"`
	StatementMarkers []string `json:"statement_markers,omitempty"`
	PaymentMarkers   []string `json:"payment_markers,omitempty"`
	FilenamePatterns []string `json:"filename_patterns,omitempty"`
}

// Encode renders the metadata as JSON for storage.
func (m AccountMetadata) Encode() string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodeAccountMetadata parses the stored JSON bag. Unparseable or empty
// input yields a zero bag.
func DecodeAccountMetadata(s string) AccountMetadata {
	var m AccountMetadata
	if s == "" {
		return m
	}
	_ = json.Unmarshal([]byte(s), &m)
	return m
}

type Account struct {
	ID             int64
	UserID         string
	Name           string
	Type           string // bank, card, cash
	Currency       string
	UpgradedFromID *int64 // predecessor account for re-issued cards
	Metadata       AccountMetadata
	CreatedAt      time.Time
}

// Transaction is one canonical ledger entry. Amount is negative for debits
// and positive for credits. Fingerprint is unique per user.
type Transaction struct {
	ID             int64
	UserID         string
	AccountID      int64
	StatementID    string
	PostedDate     string // YYYY-MM-DD
	Amount         float64
	Currency       string
	Description    string // raw, as parsed
	NormalizedDesc string
	Fingerprint    string
	CategoryID     *int64
	SubcategoryID  *int64
	Uncertain      bool
	Notes          string
	CreatedAt      time.Time

	// Joined fields for rule filters, linking and display
	AccountType string
	AccountName string
}

// Rule assigns a category to transactions whose normalized description
// matches a LIKE-style pattern. Rules written by the classifier carry the
// "auto:" name prefix so user rules stay distinguishable.
type Rule struct {
	ID             int64
	Name           string
	Pattern        string // LIKE-style, % and _ wildcards
	CategoryID     *int64
	SubcategoryID  *int64
	MinAmount      *float64
	MaxAmount      *float64
	AccountType    string // bank, card, cash, or empty for any
	MerchantFilter string // substring of the normalized description
	Priority       int
	Active         bool
	CreatedAt      time.Time
}

// IsAutoRule reports whether the rule was written by the classifier.
func (r Rule) IsAutoRule() bool {
	return strings.HasPrefix(r.Name, "auto:")
}

// Mapping is a learned normalized-description to category assignment,
// created when a user confirms a categorization for all alike transactions.
// Mappings take precedence over rules.
type Mapping struct {
	ID             int64
	UserID         string
	NormalizedDesc string
	CategoryID     int64
	SubcategoryID  *int64
	CreatedAt      time.Time
}

// TransactionLink relates two transactions. The pair is stored normalized so
// (a, b) and (b, a) are the same link. Ignored links suppress re-suggestion.
type TransactionLink struct {
	ID           int64
	TransactionA int64
	TransactionB int64
	LinkType     string // card_payment, internal_transfer, ignored
	Confidence   int
	CreatedAt    time.Time
}

// NormalizePair orders a pair of transaction IDs for storage.
func NormalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Statement records one ingested file and what the parser chain did with it.
type Statement struct {
	ID           string // uuid
	UserID       string
	AccountID    int64
	FileName     string // original upload name
	FilePath     string // stored filename in the filestore
	Status       string // pending, parsing, parsed, failed
	ParserStage  string // chain stage that produced the transactions
	ParserVer    string
	TxnsFound    int
	TxnsInserted int
	ErrorMessage string
	CreatedAt    time.Time
	ParsedAt     *time.Time
}

// TransferSuggestion is a scored candidate internal-transfer pair.
type TransferSuggestion struct {
	From       Transaction // the debit side
	To         Transaction // the credit side
	Confidence int
}

// Job represents a background job in the queue.
type Job struct {
	ID          int64
	JobType     string
	Payload     string // JSON payload
	Status      string // pending, running, completed, failed
	Progress    int    // 0-100
	Result      string // JSON result or error message
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
