package database

import (
	"database/sql"
	"fmt"
)

// Category is a row of the fixed taxonomy seeded by the schema.
type Category struct {
	ID       int64
	Name     string
	ParentID *int64
}

// ListCategories returns the full taxonomy ordered by name
func (db *DB) ListCategories() ([]Category, error) {
	rows, err := db.Query(`
		SELECT id, name, parent_id FROM categories ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &parent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if parent.Valid {
			c.ParentID = &parent.Int64
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetCategoryByName looks up a category by its exact name
func (db *DB) GetCategoryByName(name string) (*Category, error) {
	var c Category
	var parent sql.NullInt64
	err := db.QueryRow(`
		SELECT id, name, parent_id FROM categories WHERE name = ?
	`, name).Scan(&c.ID, &c.Name, &parent)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	if parent.Valid {
		c.ParentID = &parent.Int64
	}
	return &c, nil
}

// CategoryNames returns the taxonomy as a name list for the classifier prompt
func (db *DB) CategoryNames() ([]string, error) {
	cats, err := db.ListCategories()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names, nil
}
