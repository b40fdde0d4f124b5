package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// EnchantmentStore handles enchantment definition data access.
type EnchantmentStore struct {
	db *DB
}

// NewEnchantmentStore creates a new EnchantmentStore.
func NewEnchantmentStore(db *DB) *EnchantmentStore {
	return &EnchantmentStore{db: db}
}

// GetEnchantment retrieves a single enchantment by ID with its conflicts and
// applicable item types. Returns nil if it does not exist.
func (s *EnchantmentStore) GetEnchantment(ctx context.Context, id string) (*anvil.EnchantmentDefinition, error) {
	def := &anvil.EnchantmentDefinition{ID: id}

	err := s.db.QueryRowContext(ctx, `
		SELECT display_name, max_level, book_multiplier, item_multiplier
		FROM enchantments WHERE id = ?
	`, id).Scan(
		&def.DisplayName,
		&def.MaxLevel,
		&def.BookMultiplier,
		&def.ItemMultiplier,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying enchantment: %w", err)
	}

	if def.BaseConflicts, err = s.getConflicts(ctx, id); err != nil {
		return nil, err
	}
	if def.ApplicableItemTypes, err = s.getItemTypes(ctx, id); err != nil {
		return nil, err
	}

	return def, nil
}

// getConflicts retrieves the base conflicts of an enchantment.
func (s *EnchantmentStore) getConflicts(ctx context.Context, id string) ([]string, error) {
	return s.queryStrings(ctx, `
		SELECT conflicts_with FROM enchantment_conflicts
		WHERE enchantment_id = ? ORDER BY rowid
	`, id)
}

// getItemTypes retrieves the item types an enchantment applies to.
func (s *EnchantmentStore) getItemTypes(ctx context.Context, id string) ([]string, error) {
	return s.queryStrings(ctx, `
		SELECT item_type FROM enchantment_item_types
		WHERE enchantment_id = ? ORDER BY rowid
	`, id)
}

func (s *EnchantmentStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying enchantment details: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning enchantment detail: %w", err)
		}
		out = append(out, v)
	}

	return out, rows.Err()
}

// GetAllEnchantments retrieves every enchantment ordered by ID.
func (s *EnchantmentStore) GetAllEnchantments(ctx context.Context) ([]anvil.EnchantmentDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, max_level, book_multiplier, item_multiplier
		FROM enchantments ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all enchantments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var defs []anvil.EnchantmentDefinition
	for rows.Next() {
		var d anvil.EnchantmentDefinition
		if err := rows.Scan(&d.ID, &d.DisplayName, &d.MaxLevel, &d.BookMultiplier, &d.ItemMultiplier); err != nil {
			return nil, fmt.Errorf("scanning enchantment: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range defs {
		if defs[i].BaseConflicts, err = s.getConflicts(ctx, defs[i].ID); err != nil {
			return nil, fmt.Errorf("loading conflicts for %s: %w", defs[i].ID, err)
		}
		if defs[i].ApplicableItemTypes, err = s.getItemTypes(ctx, defs[i].ID); err != nil {
			return nil, fmt.Errorf("loading item types for %s: %w", defs[i].ID, err)
		}
	}

	return defs, nil
}

// CountEnchantments returns the total number of enchantments.
func (s *EnchantmentStore) CountEnchantments(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enchantments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting enchantments: %w", err)
	}
	return count, nil
}

// BulkInsertEnchantments inserts or replaces multiple enchantments in a transaction.
func (s *EnchantmentStore) BulkInsertEnchantments(ctx context.Context, defs []anvil.EnchantmentDefinition) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		enchStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO enchantments
			(id, display_name, max_level, book_multiplier, item_multiplier)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing enchantment statement: %w", err)
		}
		defer func() { _ = enchStmt.Close() }()

		conflictStmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO enchantment_conflicts (enchantment_id, conflicts_with)
			VALUES (?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing conflict statement: %w", err)
		}
		defer func() { _ = conflictStmt.Close() }()

		typeStmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO enchantment_item_types (enchantment_id, item_type)
			VALUES (?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing item type statement: %w", err)
		}
		defer func() { _ = typeStmt.Close() }()

		for _, d := range defs {
			if _, err := enchStmt.ExecContext(ctx, d.ID, d.DisplayName, d.MaxLevel, d.BookMultiplier, d.ItemMultiplier); err != nil {
				return fmt.Errorf("inserting enchantment %s: %w", d.ID, err)
			}
			for _, c := range d.BaseConflicts {
				if _, err := conflictStmt.ExecContext(ctx, d.ID, c); err != nil {
					return fmt.Errorf("inserting conflict for %s: %w", d.ID, err)
				}
			}
			for _, t := range d.ApplicableItemTypes {
				if _, err := typeStmt.ExecContext(ctx, d.ID, t); err != nil {
					return fmt.Errorf("inserting item type for %s: %w", d.ID, err)
				}
			}
		}

		return nil
	})
}

// ClearEnchantments removes all enchantment data (for re-sync).
func (s *EnchantmentStore) ClearEnchantments(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Foreign keys cascade to conflicts and item types
		_, err := tx.ExecContext(ctx, `DELETE FROM enchantments`)
		return err
	})
}
