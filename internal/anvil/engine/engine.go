// Package engine contains the anvil query business logic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2"

	"github.com/rsned/anvil-crafting-server/internal/anvil/catalog"
	"github.com/rsned/anvil-crafting-server/internal/anvil/db"
	"github.com/rsned/anvil-crafting-server/internal/anvil/optimizer"
	"github.com/rsned/anvil-crafting-server/internal/anvil/rules"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

const (
	// DefaultCacheSize is the number of recipe results kept in memory.
	DefaultCacheSize = 1024
	// DefaultWorkers bounds ComputeAll parallelism.
	DefaultWorkers = 4
)

var (
	// ErrRecipeNotFound is returned when a recipe ID is not in the store.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrInvalidRequest is returned when a request is missing required fields.
	ErrInvalidRequest = errors.New("invalid request")
)

// Options configures an Engine.
type Options struct {
	CacheSize          int
	Workers            int
	ApplyCostModifiers bool
	Logger             *slog.Logger
}

// Engine is the main query engine for anvil operations.
type Engine struct {
	recipes   *db.RecipeStore
	catalog   *catalog.Catalog
	rules     *rules.Engine
	optimizer *optimizer.Optimizer
	cache     *lru.Cache[string, anvil.RecipeResult]
	workers   int
	logger    *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates an Engine, loading the catalog and rules from the database.
// An empty enchantment or base item table falls back to the vanilla data.
func New(ctx context.Context, database *db.DB, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enchantments, err := db.NewEnchantmentStore(database).GetAllEnchantments(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading enchantments: %w", err)
	}
	items, err := db.NewBaseItemStore(database).GetAllBaseItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading base items: %w", err)
	}
	if len(enchantments) == 0 || len(items) == 0 {
		vanillaEnchantments, vanillaItems, err := catalog.VanillaData()
		if err != nil {
			return nil, err
		}
		if len(enchantments) == 0 {
			logger.Info("no enchantments in store, using vanilla definitions")
			enchantments = vanillaEnchantments
		}
		if len(items) == 0 {
			logger.Info("no base items in store, using vanilla definitions")
			items = vanillaItems
		}
	}

	ruleList, err := db.NewRuleStore(database).GetAllRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	e, err := newEngine(db.NewRecipeStore(database), catalog.New(enchantments, items), rules.New(ruleList), opts, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("engine ready",
		"enchantments", len(enchantments),
		"base_items", len(items),
		"rules", e.rules.RuleCount(),
		"cost_modifiers", opts.ApplyCostModifiers,
	)
	return e, nil
}

func newEngine(recipes *db.RecipeStore, cat *catalog.Catalog, ruleEngine *rules.Engine, opts Options, logger *slog.Logger) (*Engine, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, anvil.RecipeResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var optOpts []optimizer.Option
	if opts.ApplyCostModifiers {
		optOpts = append(optOpts, optimizer.WithRules(ruleEngine))
	}

	return &Engine{
		recipes:   recipes,
		catalog:   cat,
		rules:     ruleEngine,
		optimizer: optimizer.New(cat, optOpts...),
		cache:     cache,
		workers:   workers,
		logger:    logger,
	}, nil
}

// Catalog returns the engine's enchantment and base item catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// CacheStats reports result cache hits and misses since the engine was created.
func (e *Engine) CacheStats() (hits, misses uint64) {
	return e.hits.Load(), e.misses.Load()
}

// resolvedRecipe is a recipe input after catalog and store lookups.
type resolvedRecipe struct {
	id           string
	name         string
	base         anvil.BaseItem
	enchantments anvil.EnchantmentSpec
}

// resolve turns a recipe input into a base item and enchantment list, either
// from the store by ID or from the inline fields.
func (e *Engine) resolve(ctx context.Context, in anvil.RecipeInput) (*resolvedRecipe, error) {
	if in.RecipeID != "" {
		recipe, err := e.getRecipe(ctx, in.RecipeID)
		if err != nil {
			return nil, err
		}
		return &resolvedRecipe{
			id:           recipe.ID,
			name:         recipe.Name,
			base:         e.catalog.ResolveBaseItem(recipe.ItemType, recipe.Material, ""),
			enchantments: recipe.Enchantments,
		}, nil
	}

	if in.ItemType == "" && in.BaseItemName == "" {
		return nil, fmt.Errorf("%w: recipe_id, item_type or base_item_name is required", ErrInvalidRequest)
	}
	return &resolvedRecipe{
		base:         e.catalog.ResolveBaseItem(in.ItemType, in.Material, in.BaseItemName),
		enchantments: in.Enchantments,
	}, nil
}

func (e *Engine) getRecipe(ctx context.Context, id string) (*anvil.Recipe, error) {
	recipe, err := e.recipes.GetRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
	}
	return recipe, nil
}

// compute runs the optimizer through the result cache. Cached trees are
// shared between callers and must not be modified.
func (e *Engine) compute(base anvil.BaseItem, spec anvil.EnchantmentSpec) (anvil.RecipeResult, error) {
	key := cacheKey(base, spec)
	if result, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		return result, nil
	}
	e.misses.Add(1)

	result, err := e.optimizer.ComputeRecipe(spec, base)
	if err != nil {
		return anvil.RecipeResult{}, fmt.Errorf("computing recipe: %w", err)
	}
	e.cache.Add(key, result)

	e.logger.Debug("computed recipe",
		"base_item", base.DisplayName,
		"enchantments", len(spec),
		"valid", result.Valid,
		"total_level_cost", result.TotalLevelCost,
	)
	return result, nil
}

// cacheKey keeps enchantment order since it decides ties between equal-cost trees.
func cacheKey(base anvil.BaseItem, spec anvil.EnchantmentSpec) string {
	var sb strings.Builder
	sb.WriteString(base.DisplayName)
	for _, ench := range spec {
		fmt.Fprintf(&sb, "|%s:%d", ench.ID, ench.Level)
	}
	return sb.String()
}
