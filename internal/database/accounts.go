package database

import (
	"database/sql"
	"fmt"

	"bankbooks/internal/models"
)

// CreateAccount inserts a new account and returns its ID
func (db *DB) CreateAccount(a *models.Account) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO accounts (user_id, name, type, currency, upgraded_from_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.UserID, a.Name, a.Type, a.Currency, a.UpgradedFromID, a.Metadata.Encode())
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return result.LastInsertId()
}

// GetAccount returns an account by ID
func (db *DB) GetAccount(id int64) (*models.Account, error) {
	row := db.QueryRow(`
		SELECT id, user_id, name, type, currency, upgraded_from_id, metadata, created_at
		FROM accounts
		WHERE id = ?
	`, id)
	return scanAccount(row)
}

// ListAccounts returns all accounts for a user, oldest first
func (db *DB) ListAccounts(userID string) ([]models.Account, error) {
	rows, err := db.Query(`
		SELECT id, user_id, name, type, currency, upgraded_from_id, metadata, created_at
		FROM accounts
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpdateAccountMetadata replaces the account's metadata bag
func (db *DB) UpdateAccountMetadata(id int64, meta models.AccountMetadata) error {
	_, err := db.Exec(`
		UPDATE accounts SET metadata = ? WHERE id = ?
	`, meta.Encode(), id)
	if err != nil {
		return fmt.Errorf("update account metadata: %w", err)
	}
	return nil
}

// UpgradeAccount creates a successor account (re-issued card) that points
// back at its predecessor. Transaction history stays on the old account;
// user-level dedup keeps the two from double counting.
func (db *DB) UpgradeAccount(oldID int64, name string, meta models.AccountMetadata) (int64, error) {
	old, err := db.GetAccount(oldID)
	if err != nil {
		return 0, err
	}
	return db.CreateAccount(&models.Account{
		UserID:         old.UserID,
		Name:           name,
		Type:           old.Type,
		Currency:       old.Currency,
		UpgradedFromID: &old.ID,
		Metadata:       meta,
	})
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var upgradedFrom sql.NullInt64
	var metadata string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &upgradedFrom, &metadata, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if upgradedFrom.Valid {
		a.UpgradedFromID = &upgradedFrom.Int64
	}
	a.Metadata = models.DecodeAccountMetadata(metadata)
	return &a, nil
}

func scanAccountRows(rows *sql.Rows) (*models.Account, error) {
	var a models.Account
	var upgradedFrom sql.NullInt64
	var metadata string
	err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &upgradedFrom, &metadata, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if upgradedFrom.Valid {
		a.UpgradedFromID = &upgradedFrom.Int64
	}
	a.Metadata = models.DecodeAccountMetadata(metadata)
	return &a, nil
}
