package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// BaseItemStore handles base item data access.
type BaseItemStore struct {
	db *DB
}

// NewBaseItemStore creates a new BaseItemStore.
func NewBaseItemStore(db *DB) *BaseItemStore {
	return &BaseItemStore{db: db}
}

// GetBaseItem retrieves a base item by type and material. Returns nil if it does not exist.
func (s *BaseItemStore) GetBaseItem(ctx context.Context, itemType, material string) (*anvil.BaseItem, error) {
	item := &anvil.BaseItem{ItemType: itemType, Material: material}

	err := s.db.QueryRowContext(ctx, `
		SELECT display_name FROM base_items WHERE item_type = ? AND material = ?
	`, itemType, material).Scan(&item.DisplayName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying base item: %w", err)
	}

	return item, nil
}

// GetAllBaseItems retrieves every base item in insertion order.
func (s *BaseItemStore) GetAllBaseItems(ctx context.Context) ([]anvil.BaseItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_type, material, display_name FROM base_items ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all base items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []anvil.BaseItem
	for rows.Next() {
		var it anvil.BaseItem
		if err := rows.Scan(&it.ItemType, &it.Material, &it.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning base item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// CountBaseItems returns the total number of base items.
func (s *BaseItemStore) CountBaseItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM base_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting base items: %w", err)
	}
	return count, nil
}

// BulkInsertBaseItems inserts or replaces multiple base items in a transaction.
func (s *BaseItemStore) BulkInsertBaseItems(ctx context.Context, items []anvil.BaseItem) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO base_items (item_type, material, display_name)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing base item statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, it := range items {
			if _, err := stmt.ExecContext(ctx, it.ItemType, it.Material, it.DisplayName); err != nil {
				return fmt.Errorf("inserting base item %s: %w", it.DisplayName, err)
			}
		}

		return nil
	})
}

// ClearBaseItems removes all base items (for re-sync).
func (s *BaseItemStore) ClearBaseItems(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM base_items`)
	if err != nil {
		return fmt.Errorf("clearing base items: %w", err)
	}
	return nil
}
