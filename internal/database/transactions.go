package database

import (
	"database/sql"
	"fmt"

	"bankbooks/internal/models"
)

const transactionColumns = `
	t.id, t.user_id, t.account_id, t.statement_id, t.posted_date, t.amount,
	t.currency, t.description, t.normalized_desc, t.fingerprint,
	t.category_id, t.subcategory_id, t.uncertain, t.notes, t.created_at,
	a.type, a.name`

// InsertTransaction inserts one transaction. A fingerprint collision with an
// existing row for the same user returns ErrDuplicate.
func (db *DB) InsertTransaction(t *models.Transaction) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO transactions (user_id, account_id, statement_id, posted_date, amount,
			currency, description, normalized_desc, fingerprint,
			category_id, subcategory_id, uncertain, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.UserID, t.AccountID, t.StatementID, t.PostedDate, t.Amount,
		t.Currency, t.Description, t.NormalizedDesc, t.Fingerprint,
		t.CategoryID, t.SubcategoryID, t.Uncertain, t.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return result.LastInsertId()
}

// GetTransaction returns a transaction by ID with account fields joined
func (db *DB) GetTransaction(id int64) (*models.Transaction, error) {
	rows, err := db.Query(`
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query transaction: %w", err)
		}
		return nil, fmt.Errorf("transaction not found")
	}
	return scanTransaction(rows)
}

// ListTransactions returns all of a user's transactions, newest first
func (db *DB) ListTransactions(userID string) ([]models.Transaction, error) {
	return db.queryTransactions(`
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = ?
		ORDER BY t.posted_date DESC, t.id DESC
	`, userID)
}

// ListUnresolved returns the user's transactions with no category yet or
// still flagged uncertain, oldest first so the categorize pass works
// through backlog in order
func (db *DB) ListUnresolved(userID string) ([]models.Transaction, error) {
	return db.queryTransactions(`
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = ? AND (t.category_id IS NULL OR t.uncertain = 1)
		ORDER BY t.posted_date ASC, t.id ASC
	`, userID)
}

// SetTransactionCategory assigns a category and clears or sets the
// uncertainty flag
func (db *DB) SetTransactionCategory(id int64, categoryID int64, subcategoryID *int64, uncertain bool) error {
	_, err := db.Exec(`
		UPDATE transactions
		SET category_id = ?, subcategory_id = ?, uncertain = ?
		WHERE id = ?
	`, categoryID, subcategoryID, uncertain, id)
	if err != nil {
		return fmt.Errorf("set transaction category: %w", err)
	}
	return nil
}

func (db *DB) queryTransactions(query string, args ...any) ([]models.Transaction, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func scanTransaction(rows *sql.Rows) (*models.Transaction, error) {
	var t models.Transaction
	var categoryID, subcategoryID sql.NullInt64
	err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.StatementID, &t.PostedDate, &t.Amount,
		&t.Currency, &t.Description, &t.NormalizedDesc, &t.Fingerprint,
		&categoryID, &subcategoryID, &t.Uncertain, &t.Notes, &t.CreatedAt,
		&t.AccountType, &t.AccountName)
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if subcategoryID.Valid {
		t.SubcategoryID = &subcategoryID.Int64
	}
	return &t, nil
}
