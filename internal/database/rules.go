package database

import (
	"database/sql"
	"fmt"

	"bankbooks/internal/models"
)

// CreateRule inserts a rule and returns its ID
func (db *DB) CreateRule(r *models.Rule) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO rules (name, pattern, category_id, subcategory_id,
			min_amount, max_amount, account_type, merchant_filter, priority, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Name, r.Pattern, r.CategoryID, r.SubcategoryID,
		r.MinAmount, r.MaxAmount, r.AccountType, r.MerchantFilter, r.Priority, r.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	return result.LastInsertId()
}

// ListActiveRules returns all active rules, highest priority first
func (db *DB) ListActiveRules() ([]models.Rule, error) {
	rows, err := db.Query(`
		SELECT id, name, pattern, category_id, subcategory_id,
			min_amount, max_amount, account_type, merchant_filter, priority, active, created_at
		FROM rules
		WHERE active = 1
		ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var r models.Rule
		var categoryID, subcategoryID sql.NullInt64
		var minAmount, maxAmount sql.NullFloat64
		err := rows.Scan(&r.ID, &r.Name, &r.Pattern, &categoryID, &subcategoryID,
			&minAmount, &maxAmount, &r.AccountType, &r.MerchantFilter, &r.Priority, &r.Active, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if categoryID.Valid {
			r.CategoryID = &categoryID.Int64
		}
		if subcategoryID.Valid {
			r.SubcategoryID = &subcategoryID.Int64
		}
		if minAmount.Valid {
			r.MinAmount = &minAmount.Float64
		}
		if maxAmount.Valid {
			r.MaxAmount = &maxAmount.Float64
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeactivateRule turns a named rule off without deleting it. Unknown names
// are a no-op.
func (db *DB) DeactivateRule(name string) error {
	_, err := db.Exec(`UPDATE rules SET active = 0 WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deactivate rule: %w", err)
	}
	return nil
}
