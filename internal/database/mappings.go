package database

import (
	"database/sql"
	"fmt"

	"bankbooks/internal/models"
)

// GetMapping returns the user's learned mapping for a normalized description,
// or nil when none exists
func (db *DB) GetMapping(userID, normalizedDesc string) (*models.Mapping, error) {
	var m models.Mapping
	var subcategoryID sql.NullInt64
	err := db.QueryRow(`
		SELECT id, user_id, normalized_desc, category_id, subcategory_id, created_at
		FROM mappings
		WHERE user_id = ? AND normalized_desc = ?
	`, userID, normalizedDesc).Scan(&m.ID, &m.UserID, &m.NormalizedDesc, &m.CategoryID, &subcategoryID, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query mapping: %w", err)
	}
	if subcategoryID.Valid {
		m.SubcategoryID = &subcategoryID.Int64
	}
	return &m, nil
}

// UpsertMapping records a confirmed categorization for a normalized
// description, replacing any earlier assignment
func (db *DB) UpsertMapping(userID, normalizedDesc string, categoryID int64, subcategoryID *int64) error {
	_, err := db.Exec(`
		INSERT INTO mappings (user_id, normalized_desc, category_id, subcategory_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, normalized_desc)
		DO UPDATE SET category_id = excluded.category_id, subcategory_id = excluded.subcategory_id
	`, userID, normalizedDesc, categoryID, subcategoryID)
	if err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}

// ApplyMapping recategorizes every transaction of the user that shares the
// mapped normalized description. Returns the number of rows updated.
func (db *DB) ApplyMapping(userID, normalizedDesc string, categoryID int64, subcategoryID *int64) (int64, error) {
	result, err := db.Exec(`
		UPDATE transactions
		SET category_id = ?, subcategory_id = ?, uncertain = 0
		WHERE user_id = ? AND normalized_desc = ?
	`, categoryID, subcategoryID, userID, normalizedDesc)
	if err != nil {
		return 0, fmt.Errorf("apply mapping: %w", err)
	}
	return result.RowsAffected()
}
