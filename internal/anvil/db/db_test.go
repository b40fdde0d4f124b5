package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenAndInit(context.Background(), filepath.Join(t.TempDir(), "anvil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSyncMetadata(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	v, err := db.GetSyncMetadata(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetSyncMetadata(ctx, "version", "1"))
	require.NoError(t, db.SetSyncMetadata(ctx, "version", "2"))
	v, err = db.GetSyncMetadata(ctx, "version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestSyncRecord(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	rec, err := db.GetSyncRecord(ctx, "recipes")
	require.NoError(t, err)
	assert.Nil(t, rec)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordSync(ctx, "recipes", 7, at))
	rec, err = db.GetSyncRecord(ctx, "recipes")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "recipes", rec.Kind)
	assert.Equal(t, 7, rec.Count)
	assert.True(t, at.Equal(rec.LastSync))

	raw, err := db.GetSyncMetadata(ctx, "recipes_count")
	require.NoError(t, err)
	assert.Equal(t, "7", raw)
}

func TestOpenCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "anvil.db")
	db, err := OpenAndInit(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, path, db.Path())
	assert.FileExists(t, path)
}

func TestOpenInMemory(t *testing.T) {
	ctx := context.Background()
	db, err := OpenAndInit(ctx, MemoryPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.SetSyncMetadata(ctx, SeedSourceKey, "vanilla"))
	v, err := db.GetSyncMetadata(ctx, SeedSourceKey)
	require.NoError(t, err)
	assert.Equal(t, "vanilla", v)
}

func TestInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	boom := errors.New("boom")
	err := db.InTransaction(ctx, func(tx *sql.Tx) error {
		if err := setSyncMetadata(ctx, tx, "pending", "yes"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := db.GetSyncMetadata(ctx, "pending")
	require.NoError(t, err)
	assert.Empty(t, v)

	assert.Panics(t, func() {
		_ = db.InTransaction(ctx, func(tx *sql.Tx) error {
			_ = setSyncMetadata(ctx, tx, "pending", "yes")
			panic("kaboom")
		})
	})
	v, err = db.GetSyncMetadata(ctx, "pending")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, InitSchema(context.Background(), db.DB))
}

func TestEnchantmentStore(t *testing.T) {
	ctx := context.Background()
	store := NewEnchantmentStore(openTestDB(t))

	defs := []anvil.EnchantmentDefinition{
		{ID: "sharpness", DisplayName: "Sharpness", MaxLevel: 5, BookMultiplier: 1, ItemMultiplier: 1,
			BaseConflicts: []string{"smite"}, ApplicableItemTypes: []string{"sword", "axe"}},
		{ID: "mending", DisplayName: "Mending", MaxLevel: 1, BookMultiplier: 2, ItemMultiplier: 4},
	}
	require.NoError(t, store.BulkInsertEnchantments(ctx, defs))

	got, err := store.GetEnchantment(ctx, "sharpness")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, defs[0], *got)

	missing, err := store.GetEnchantment(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := store.GetAllEnchantments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "mending", all[0].ID)
	assert.Empty(t, all[0].BaseConflicts)

	n, err := store.CountEnchantments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.ClearEnchantments(ctx))
	n, err = store.CountEnchantments(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBaseItemStore(t *testing.T) {
	ctx := context.Background()
	store := NewBaseItemStore(openTestDB(t))

	items := []anvil.BaseItem{
		{ItemType: "sword", Material: "netherite", DisplayName: "Netherite Sword"},
		{ItemType: "elytra", DisplayName: "Elytra"},
	}
	require.NoError(t, store.BulkInsertBaseItems(ctx, items))
	require.NoError(t, store.BulkInsertBaseItems(ctx, items[:1]))

	got, err := store.GetBaseItem(ctx, "elytra", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, items[1], *got)

	all, err := store.GetAllBaseItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.ClearBaseItems(ctx))
	n, err := store.CountBaseItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecipeStore(t *testing.T) {
	ctx := context.Background()
	store := NewRecipeStore(openTestDB(t))

	recipes := []anvil.Recipe{
		{ID: "god_sword", Name: "God Sword", ItemType: "sword", Material: "netherite",
			Enchantments: anvil.EnchantmentSpec{{ID: "sharpness", Level: 5}, {ID: "mending", Level: 1}}},
		{ID: "silk_pick", Name: "Silk Pickaxe", Description: "for ores", ItemType: "pickaxe", Material: "diamond",
			Enchantments: anvil.EnchantmentSpec{{ID: "silk_touch", Level: 1}}},
	}
	require.NoError(t, store.BulkInsertRecipes(ctx, recipes))

	got, err := store.GetRecipe(ctx, "god_sword")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, recipes[0], *got)

	// Re-inserting replaces the enchantment list.
	updated := recipes[0]
	updated.Enchantments = anvil.EnchantmentSpec{{ID: "unbreaking", Level: 3}}
	require.NoError(t, store.BulkInsertRecipes(ctx, []anvil.Recipe{updated}))
	got, err = store.GetRecipe(ctx, "god_sword")
	require.NoError(t, err)
	assert.Equal(t, updated.Enchantments, got.Enchantments)

	hits, err := store.SearchRecipes(ctx, "pick", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, anvil.RecipeSearchHit{RecipeID: "silk_pick", Name: "Silk Pickaxe", ItemType: "pickaxe"}, hits[0])

	ids, err := store.GetAllRecipeIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"god_sword", "silk_pick"}, ids)

	all, err := store.GetAllRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, recipes[1], all[1])

	missing, err := store.GetRecipe(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.ClearRecipes(ctx))
	n, err := store.CountRecipes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRuleStoreKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := NewRuleStore(openTestDB(t))

	first := []anvil.Rule{
		&anvil.MaxLevelOverrideRule{ID: "eff-6", Enchantment: "efficiency", MaxLevel: 6},
		&anvil.ItemRestrictionRule{ID: "no-thorns", Disabled: true, Enchantment: "thorns", Block: []string{"boots"}},
	}
	second := []anvil.Rule{
		&anvil.CostModifierRule{ID: "cheap", Enchantments: []string{"mending"},
			Modifier: anvil.CostModifier{BookMultiplierAdd: -1, BookMultiplierMult: 1}},
	}
	require.NoError(t, store.BulkInsertRules(ctx, first))
	require.NoError(t, store.BulkInsertRules(ctx, second))

	got, err := store.GetAllRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), got)

	n, err := store.CountRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.ClearRules(ctx))
	got, err = store.GetAllRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
