// Package fingerprint computes the content-addressed identity used for
// transaction deduplication.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

// Compute hashes the canonical tuple that identifies a transaction: the
// owning user, the ISO posted date, the amount rendered at fixed two-decimal
// precision, and the normalized description. The scope is the user rather
// than the account so dedup history survives moving transactions between
// accounts (card upgrades).
func Compute(userID, postedDate string, amount float64, normalizedDesc string) string {
	amt := decimal.NewFromFloat(amount).StringFixed(2)
	payload := strings.Join([]string{userID, postedDate, amt, normalizedDesc}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
