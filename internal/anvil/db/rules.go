package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// RuleStore handles rule data access. Rules keep the order they were inserted in.
type RuleStore struct {
	db *DB
}

// NewRuleStore creates a new RuleStore.
func NewRuleStore(db *DB) *RuleStore {
	return &RuleStore{db: db}
}

// GetAllRules retrieves every rule, disabled ones included, in evaluation order.
func (s *RuleStore) GetAllRules(ctx context.Context) ([]anvil.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM rules ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []anvil.Rule
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}

		var env anvil.RuleEnvelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			return nil, fmt.Errorf("decoding rule %s: %w", id, err)
		}
		r, err := env.Rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	return rules, rows.Err()
}

// CountRules returns the total number of rules.
func (s *RuleStore) CountRules(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rules`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rules: %w", err)
	}
	return count, nil
}

// BulkInsertRules appends rules after the existing ones. A rule whose ID
// already exists is replaced and moves to the end.
func (s *RuleStore) BulkInsertRules(ctx context.Context, rules []anvil.Rule) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM rules`).Scan(&next); err != nil {
			return fmt.Errorf("reading rule position: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO rules (id, kind, position, disabled, payload)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing rule statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, r := range rules {
			payload, err := json.Marshal(anvil.EnvelopeFor(r))
			if err != nil {
				return fmt.Errorf("encoding rule %s: %w", r.RuleID(), err)
			}
			if _, err := stmt.ExecContext(ctx, r.RuleID(), string(r.Kind()), next+i, r.IsDisabled(), string(payload)); err != nil {
				return fmt.Errorf("inserting rule %s: %w", r.RuleID(), err)
			}
		}

		return nil
	})
}

// ClearRules removes all rules (for re-sync).
func (s *RuleStore) ClearRules(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rules`)
	if err != nil {
		return fmt.Errorf("clearing rules: %w", err)
	}
	return nil
}
