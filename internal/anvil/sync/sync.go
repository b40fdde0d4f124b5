// Package sync handles importing enchantment, item, recipe and rule data into the store.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rsned/anvil-crafting-server/internal/anvil/catalog"
	"github.com/rsned/anvil-crafting-server/internal/anvil/db"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// Syncer handles data imports.
type Syncer struct {
	db *db.DB
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB) *Syncer {
	return &Syncer{db: database}
}

// EnchantmentImport is the accepted shape of enchantment data. Several
// community data dumps name the same fields differently.
type EnchantmentImport struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	MaxLevel    int    `json:"max_level,omitempty"`
	MaxLvl      int    `json:"maxLevel,omitempty"`

	BookMultiplier int `json:"book_multiplier,omitempty"`
	ItemMultiplier int `json:"item_multiplier,omitempty"`
	Multiplier     struct {
		Book int `json:"book,omitempty"`
		Item int `json:"item,omitempty"`
	} `json:"multiplier,omitempty"`

	BaseConflicts []string `json:"base_conflicts,omitempty"`
	Conflicts     []string `json:"conflicts,omitempty"`
	Incompatible  []string `json:"incompatible,omitempty"`

	ApplicableItemTypes []string `json:"applicable_item_types,omitempty"`
	Items               []string `json:"items,omitempty"`
}

// BaseItemImport is the accepted shape of base item data.
type BaseItemImport struct {
	ItemType    string `json:"item_type,omitempty"`
	Type        string `json:"type,omitempty"`
	Material    string `json:"material,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Name        string `json:"name,omitempty"`
}

// RecipeImport is the accepted shape of recipe data.
type RecipeImport struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	ItemType string `json:"item_type,omitempty"`
	Item     string `json:"item,omitempty"`
	Material string `json:"material,omitempty"`

	Enchantments []struct {
		ID          string `json:"id,omitempty"`
		Enchantment string `json:"enchantment,omitempty"`
		Level       int    `json:"level,omitempty"`
		Lvl         int    `json:"lvl,omitempty"`
	} `json:"enchantments,omitempty"`
}

// ImportEnchantmentsFromFile imports enchantment definitions from a JSON file.
func (s *Syncer) ImportEnchantmentsFromFile(ctx context.Context, path string) error {
	var imports []EnchantmentImport
	if err := readJSON(path, &imports); err != nil {
		return err
	}

	defs := make([]anvil.EnchantmentDefinition, 0, len(imports))
	for _, imp := range imports {
		if imp.ID == "" {
			continue
		}
		defs = append(defs, transformEnchantment(imp))
	}

	return s.ImportEnchantments(ctx, defs)
}

// ImportEnchantments stores enchantment definitions and records the sync.
func (s *Syncer) ImportEnchantments(ctx context.Context, defs []anvil.EnchantmentDefinition) error {
	store := db.NewEnchantmentStore(s.db)
	if err := store.BulkInsertEnchantments(ctx, defs); err != nil {
		return fmt.Errorf("inserting enchantments: %w", err)
	}
	return s.recordSync(ctx, "enchantments", len(defs))
}

// ImportBaseItemsFromFile imports base items from a JSON file.
func (s *Syncer) ImportBaseItemsFromFile(ctx context.Context, path string) error {
	var imports []BaseItemImport
	if err := readJSON(path, &imports); err != nil {
		return err
	}

	items := make([]anvil.BaseItem, 0, len(imports))
	for _, imp := range imports {
		item, ok := transformBaseItem(imp)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return s.ImportBaseItems(ctx, items)
}

// ImportBaseItems stores base items and records the sync.
func (s *Syncer) ImportBaseItems(ctx context.Context, items []anvil.BaseItem) error {
	store := db.NewBaseItemStore(s.db)
	if err := store.BulkInsertBaseItems(ctx, items); err != nil {
		return fmt.Errorf("inserting base items: %w", err)
	}
	return s.recordSync(ctx, "base_items", len(items))
}

// ImportRecipesFromFile imports recipes from a JSON file.
func (s *Syncer) ImportRecipesFromFile(ctx context.Context, path string) error {
	var imports []RecipeImport
	if err := readJSON(path, &imports); err != nil {
		return err
	}

	recipes := make([]anvil.Recipe, 0, len(imports))
	for _, imp := range imports {
		recipe, ok := transformRecipe(imp)
		if !ok {
			continue
		}
		recipes = append(recipes, recipe)
	}

	store := db.NewRecipeStore(s.db)
	if err := store.BulkInsertRecipes(ctx, recipes); err != nil {
		return fmt.Errorf("inserting recipes: %w", err)
	}
	return s.recordSync(ctx, "recipes", len(recipes))
}

// ruleFile is the wrapped form of a rule file: {rules: [...]}.
type ruleFile struct {
	Rules []anvil.RuleEnvelope `json:"rules" yaml:"rules"`
}

// ImportRulesFromFile imports rules from a YAML (.yaml, .yml) or JSON file.
// The file holds either a list of rules or an object with a "rules" list.
// Every rule is checked before anything is stored.
func (s *Syncer) ImportRulesFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	envelopes, err := parseRules(data, filepath.Ext(path))
	if err != nil {
		return err
	}

	rules := make([]anvil.Rule, 0, len(envelopes))
	for _, env := range envelopes {
		r, err := env.Rule()
		if err != nil {
			return fmt.Errorf("invalid rule: %w", err)
		}
		rules = append(rules, r)
	}

	store := db.NewRuleStore(s.db)
	if err := store.BulkInsertRules(ctx, rules); err != nil {
		return fmt.Errorf("inserting rules: %w", err)
	}
	return s.recordSync(ctx, "rules", len(rules))
}

func parseRules(data []byte, ext string) ([]anvil.RuleEnvelope, error) {
	unmarshal := json.Unmarshal
	format := "JSON"
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
		format = "YAML"
	}

	var list []anvil.RuleEnvelope
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped ruleFile
	if err := unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", format, err)
	}
	return wrapped.Rules, nil
}

// SeedVanilla loads the embedded vanilla enchantments and base items when the
// store has no enchantments yet. It reports whether anything was seeded.
func (s *Syncer) SeedVanilla(ctx context.Context) (bool, error) {
	count, err := db.NewEnchantmentStore(s.db).CountEnchantments(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	enchantments, items, err := catalog.VanillaData()
	if err != nil {
		return false, err
	}
	if err := s.ImportEnchantments(ctx, enchantments); err != nil {
		return false, err
	}
	if err := s.ImportBaseItems(ctx, items); err != nil {
		return false, err
	}
	if err := s.db.SetSyncMetadata(ctx, db.SeedSourceKey, "vanilla"); err != nil {
		return false, err
	}

	return true, nil
}

// ClearAll removes all data from the database.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := db.NewRecipeStore(s.db).ClearRecipes(ctx); err != nil {
		return err
	}
	if err := db.NewRuleStore(s.db).ClearRules(ctx); err != nil {
		return err
	}
	if err := db.NewBaseItemStore(s.db).ClearBaseItems(ctx); err != nil {
		return err
	}
	if err := db.NewEnchantmentStore(s.db).ClearEnchantments(ctx); err != nil {
		return err
	}

	return nil
}

func (s *Syncer) recordSync(ctx context.Context, kind string, count int) error {
	return s.db.RecordSync(ctx, kind, count, time.Now())
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

// transformEnchantment converts import format to domain format.
func transformEnchantment(imp EnchantmentImport) anvil.EnchantmentDefinition {
	def := anvil.EnchantmentDefinition{
		ID:             imp.ID,
		DisplayName:    firstNonEmpty(imp.DisplayName, imp.Name, anvil.FormatID(imp.ID)),
		MaxLevel:       firstPositive(imp.MaxLevel, imp.MaxLvl, 1),
		BookMultiplier: firstPositive(imp.BookMultiplier, imp.Multiplier.Book, 1),
		ItemMultiplier: firstPositive(imp.ItemMultiplier, imp.Multiplier.Item),
	}
	if def.ItemMultiplier == 0 {
		def.ItemMultiplier = def.BookMultiplier * 2
	}

	switch {
	case len(imp.BaseConflicts) > 0:
		def.BaseConflicts = imp.BaseConflicts
	case len(imp.Conflicts) > 0:
		def.BaseConflicts = imp.Conflicts
	default:
		def.BaseConflicts = imp.Incompatible
	}

	if len(imp.ApplicableItemTypes) > 0 {
		def.ApplicableItemTypes = imp.ApplicableItemTypes
	} else {
		def.ApplicableItemTypes = imp.Items
	}

	return def
}

// transformBaseItem converts import format to domain format.
func transformBaseItem(imp BaseItemImport) (anvil.BaseItem, bool) {
	item := anvil.BaseItem{
		ItemType:    firstNonEmpty(imp.ItemType, imp.Type),
		Material:    imp.Material,
		DisplayName: firstNonEmpty(imp.DisplayName, imp.Name),
	}
	if item.ItemType == "" && item.DisplayName == "" {
		return item, false
	}
	if item.ItemType == "" {
		item.ItemType = anvil.Slug(item.DisplayName)
	}
	if item.DisplayName == "" {
		item.DisplayName = strings.TrimSpace(anvil.FormatID(item.Material) + " " + anvil.FormatID(item.ItemType))
	}
	return item, true
}

// transformRecipe converts import format to domain format.
func transformRecipe(imp RecipeImport) (anvil.Recipe, bool) {
	recipe := anvil.Recipe{
		ID:           firstNonEmpty(imp.ID, anvil.Slug(imp.Name)),
		Name:         imp.Name,
		Description:  imp.Description,
		ItemType:     firstNonEmpty(imp.ItemType, imp.Item),
		Material:     imp.Material,
		Enchantments: anvil.EnchantmentSpec{},
	}
	if recipe.ID == "" || recipe.ItemType == "" {
		return recipe, false
	}
	if recipe.Name == "" {
		recipe.Name = anvil.FormatID(recipe.ID)
	}

	for _, e := range imp.Enchantments {
		id := firstNonEmpty(e.ID, e.Enchantment)
		if id == "" {
			continue
		}
		recipe.Enchantments = append(recipe.Enchantments, anvil.EnchantmentLevel{
			ID:    id,
			Level: firstPositive(e.Level, e.Lvl, 1),
		})
	}

	return recipe, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
