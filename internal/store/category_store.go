package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jjenkins/billtracker/internal/model"
)

// CategoryStore handles database operations for categories
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// UpsertCategory inserts or updates a category
func (s *CategoryStore) UpsertCategory(ctx context.Context, c *model.Category) error {
	query := `
		INSERT INTO categories (id, title, short_title, description, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			short_title = EXCLUDED.short_title,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, c.ID, c.Title, c.ShortTitle, c.Description, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert category %s: %w", c.ID, err)
	}

	return nil
}

// ReplaceCategoryBills sets the bills linked to a category
func (s *CategoryStore) ReplaceCategoryBills(ctx context.Context, categoryID string, billKeys []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_bills WHERE category_id = $1`, categoryID); err != nil {
		return fmt.Errorf("failed to clear bills for category %s: %w", categoryID, err)
	}

	query := `
		INSERT INTO category_bills (category_id, bill_key)
		VALUES ($1, $2)
		ON CONFLICT (category_id, bill_key) DO NOTHING
	`
	for _, key := range billKeys {
		if _, err := tx.ExecContext(ctx, query, categoryID, key); err != nil {
			return fmt.Errorf("failed to link category %s to bill %s: %w", categoryID, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCategoryBills retrieves the bill keys linked to a category
func (s *CategoryStore) GetCategoryBills(ctx context.Context, categoryID string) ([]string, error) {
	query := `SELECT bill_key FROM category_bills WHERE category_id = $1 ORDER BY bill_key`

	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills for category %s: %w", categoryID, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan bill key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// CountCategories returns the total number of stored categories
func (s *CategoryStore) CountCategories(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}
