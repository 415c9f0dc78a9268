package database

import (
	"fmt"

	"bankbooks/internal/models"
)

// CreateLink records a link between two transactions. The pair is stored in
// normalized order; relinking an existing pair returns ErrDuplicate.
func (db *DB) CreateLink(txnA, txnB int64, linkType string, confidence int) (int64, error) {
	a, b := models.NormalizePair(txnA, txnB)
	result, err := db.Exec(`
		INSERT INTO transaction_links (txn_a, txn_b, link_type, confidence)
		VALUES (?, ?, ?, ?)
	`, a, b, linkType, confidence)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert link: %w", err)
	}
	return result.LastInsertId()
}

// ListLinks returns all links touching the user's transactions
func (db *DB) ListLinks(userID string) ([]models.TransactionLink, error) {
	rows, err := db.Query(`
		SELECT l.id, l.txn_a, l.txn_b, l.link_type, l.confidence, l.created_at
		FROM transaction_links l
		JOIN transactions t ON t.id = l.txn_a
		WHERE t.user_id = ?
		ORDER BY l.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []models.TransactionLink
	for rows.Next() {
		var l models.TransactionLink
		err := rows.Scan(&l.ID, &l.TransactionA, &l.TransactionB, &l.LinkType, &l.Confidence, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// LinkedPairs returns the set of normalized transaction-ID pairs already
// linked (any type, including ignored) for the user. Used to keep passes
// idempotent and to suppress re-suggestion of dismissed pairs.
func (db *DB) LinkedPairs(userID string) (map[[2]int64]string, error) {
	links, err := db.ListLinks(userID)
	if err != nil {
		return nil, err
	}
	pairs := make(map[[2]int64]string, len(links))
	for _, l := range links {
		pairs[[2]int64{l.TransactionA, l.TransactionB}] = l.LinkType
	}
	return pairs, nil
}

// LinkedTransactionIDs returns the IDs of every transaction that already
// participates in a non-ignored link
func (db *DB) LinkedTransactionIDs(userID string) (map[int64]bool, error) {
	links, err := db.ListLinks(userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool)
	for _, l := range links {
		if l.LinkType == models.LinkTypeIgnored {
			continue
		}
		ids[l.TransactionA] = true
		ids[l.TransactionB] = true
	}
	return ids, nil
}

// DeleteLink removes a link by ID
func (db *DB) DeleteLink(id int64) error {
	_, err := db.Exec(`DELETE FROM transaction_links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}
