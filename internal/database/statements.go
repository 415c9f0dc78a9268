package database

import (
	"database/sql"
	"fmt"

	"bankbooks/internal/models"
)

// CreateStatement records a newly received statement file in pending status
func (db *DB) CreateStatement(s *models.Statement) error {
	_, err := db.Exec(`
		INSERT INTO statements (id, user_id, account_id, file_name, file_path, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.AccountID, s.FileName, s.FilePath, models.StatementStatusPending)
	if err != nil {
		return fmt.Errorf("insert statement: %w", err)
	}
	return nil
}

// GetStatement returns a statement by ID
func (db *DB) GetStatement(id string) (*models.Statement, error) {
	var s models.Statement
	var parsedAt sql.NullTime
	err := db.QueryRow(`
		SELECT id, user_id, account_id, file_name, file_path, status,
			parser_stage, parser_version, txns_found, txns_inserted, error_message,
			created_at, parsed_at
		FROM statements
		WHERE id = ?
	`, id).Scan(&s.ID, &s.UserID, &s.AccountID, &s.FileName, &s.FilePath, &s.Status,
		&s.ParserStage, &s.ParserVer, &s.TxnsFound, &s.TxnsInserted, &s.ErrorMessage,
		&s.CreatedAt, &parsedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("statement not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query statement: %w", err)
	}
	if parsedAt.Valid {
		s.ParsedAt = &parsedAt.Time
	}
	return &s, nil
}

// MarkStatementParsing moves a statement into parsing status
func (db *DB) MarkStatementParsing(id string) error {
	_, err := db.Exec(`
		UPDATE statements SET status = ? WHERE id = ?
	`, models.StatementStatusParsing, id)
	if err != nil {
		return fmt.Errorf("mark statement parsing: %w", err)
	}
	return nil
}

// MarkStatementParsed records a successful parse with the winning chain
// stage, its version and the found/inserted counts
func (db *DB) MarkStatementParsed(id, parserStage, parserVer string, found, inserted int) error {
	_, err := db.Exec(`
		UPDATE statements
		SET status = ?, parser_stage = ?, parser_version = ?,
			txns_found = ?, txns_inserted = ?, error_message = '',
			parsed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.StatementStatusParsed, parserStage, parserVer, found, inserted, id)
	if err != nil {
		return fmt.Errorf("mark statement parsed: %w", err)
	}
	return nil
}

// MarkStatementFailed records a failed parse with the error message
func (db *DB) MarkStatementFailed(id, errMsg string) error {
	_, err := db.Exec(`
		UPDATE statements
		SET status = ?, error_message = ?, parsed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.StatementStatusFailed, errMsg, id)
	if err != nil {
		return fmt.Errorf("mark statement failed: %w", err)
	}
	return nil
}

// ListStatements returns a user's statements, newest first
func (db *DB) ListStatements(userID string) ([]models.Statement, error) {
	rows, err := db.Query(`
		SELECT id, user_id, account_id, file_name, file_path, status,
			parser_stage, parser_version, txns_found, txns_inserted, error_message,
			created_at, parsed_at
		FROM statements
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	var stmts []models.Statement
	for rows.Next() {
		var s models.Statement
		var parsedAt sql.NullTime
		err := rows.Scan(&s.ID, &s.UserID, &s.AccountID, &s.FileName, &s.FilePath, &s.Status,
			&s.ParserStage, &s.ParserVer, &s.TxnsFound, &s.TxnsInserted, &s.ErrorMessage,
			&s.CreatedAt, &parsedAt)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		if parsedAt.Valid {
			s.ParsedAt = &parsedAt.Time
		}
		stmts = append(stmts, s)
	}
	return stmts, rows.Err()
}
