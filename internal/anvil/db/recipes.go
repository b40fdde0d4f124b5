package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// RecipeStore handles recipe data access.
type RecipeStore struct {
	db *DB
}

// NewRecipeStore creates a new RecipeStore.
func NewRecipeStore(db *DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// GetRecipe retrieves a single recipe by ID with its enchantments.
// Returns nil if it does not exist.
func (s *RecipeStore) GetRecipe(ctx context.Context, id string) (*anvil.Recipe, error) {
	recipe := &anvil.Recipe{ID: id}

	err := s.db.QueryRowContext(ctx, `
		SELECT name, description, item_type, material
		FROM recipes WHERE id = ?
	`, id).Scan(
		&recipe.Name,
		&recipe.Description,
		&recipe.ItemType,
		&recipe.Material,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying recipe: %w", err)
	}

	enchantments, err := s.getRecipeEnchantments(ctx, id)
	if err != nil {
		return nil, err
	}
	recipe.Enchantments = enchantments

	return recipe, nil
}

// getRecipeEnchantments retrieves the enchantments of a recipe in authored order.
func (s *RecipeStore) getRecipeEnchantments(ctx context.Context, recipeID string) (anvil.EnchantmentSpec, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT enchantment_id, level
		FROM recipe_enchantments
		WHERE recipe_id = ?
		ORDER BY position
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("querying recipe enchantments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	spec := anvil.EnchantmentSpec{}
	for rows.Next() {
		var e anvil.EnchantmentLevel
		if err := rows.Scan(&e.ID, &e.Level); err != nil {
			return nil, fmt.Errorf("scanning recipe enchantment: %w", err)
		}
		spec = append(spec, e)
	}

	return spec, rows.Err()
}

// SearchRecipes searches recipes by name or ID (case-insensitive partial match).
func (s *RecipeStore) SearchRecipes(ctx context.Context, term string, limit int) ([]anvil.RecipeSearchHit, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, item_type
		FROM recipes
		WHERE name LIKE ? OR id LIKE ?
		ORDER BY name
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []anvil.RecipeSearchHit
	for rows.Next() {
		var hit anvil.RecipeSearchHit
		if err := rows.Scan(&hit.RecipeID, &hit.Name, &hit.ItemType); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		results = append(results, hit)
	}

	return results, rows.Err()
}

// GetAllRecipeIDs returns all recipe IDs in the database.
func (s *RecipeStore) GetAllRecipeIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing all recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning recipe id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CountRecipes returns the total number of recipes.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return count, nil
}

// GetAllRecipes retrieves all recipes with their enchantments, ordered by ID.
func (s *RecipeStore) GetAllRecipes(ctx context.Context) ([]anvil.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, item_type, material
		FROM recipes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recipes []anvil.Recipe
	for rows.Next() {
		var r anvil.Recipe
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.ItemType, &r.Material); err != nil {
			return nil, fmt.Errorf("scanning recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range recipes {
		enchantments, err := s.getRecipeEnchantments(ctx, recipes[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading enchantments for %s: %w", recipes[i].ID, err)
		}
		recipes[i].Enchantments = enchantments
	}

	return recipes, nil
}

// BulkInsertRecipes inserts or replaces multiple recipes in a transaction.
func (s *RecipeStore) BulkInsertRecipes(ctx context.Context, recipes []anvil.Recipe) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		recipeStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO recipes (id, name, description, item_type, material)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing recipe statement: %w", err)
		}
		defer func() { _ = recipeStmt.Close() }()

		clearStmt, err := tx.PrepareContext(ctx, `DELETE FROM recipe_enchantments WHERE recipe_id = ?`)
		if err != nil {
			return fmt.Errorf("preparing clear statement: %w", err)
		}
		defer func() { _ = clearStmt.Close() }()

		enchStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recipe_enchantments (recipe_id, position, enchantment_id, level)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing enchantment statement: %w", err)
		}
		defer func() { _ = enchStmt.Close() }()

		for _, r := range recipes {
			if _, err := recipeStmt.ExecContext(ctx, r.ID, r.Name, r.Description, r.ItemType, r.Material); err != nil {
				return fmt.Errorf("inserting recipe %s: %w", r.ID, err)
			}
			if _, err := clearStmt.ExecContext(ctx, r.ID); err != nil {
				return fmt.Errorf("clearing enchantments for %s: %w", r.ID, err)
			}
			for i, e := range r.Enchantments {
				if _, err := enchStmt.ExecContext(ctx, r.ID, i, e.ID, e.Level); err != nil {
					return fmt.Errorf("inserting enchantment for %s: %w", r.ID, err)
				}
			}
		}

		return nil
	})
}

// ClearRecipes removes all recipe data (for re-sync).
func (s *RecipeStore) ClearRecipes(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Foreign keys will cascade delete recipe enchantments
		_, err := tx.ExecContext(ctx, `DELETE FROM recipes`)
		return err
	})
}
