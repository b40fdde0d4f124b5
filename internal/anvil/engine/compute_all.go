package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// ComputeAll optimizes every stored recipe using a bounded pool of workers.
// Summaries are returned in recipe ID order.
func (e *Engine) ComputeAll(ctx context.Context) ([]anvil.RecipeSummary, error) {
	recipes, err := e.recipes.GetAllRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading recipes: %w", err)
	}

	summaries := make([]anvil.RecipeSummary, len(recipes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, recipe := range recipes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			base := e.catalog.ResolveBaseItem(recipe.ItemType, recipe.Material, "")
			result, err := e.compute(base, recipe.Enchantments)
			if err != nil {
				return fmt.Errorf("recipe %s: %w", recipe.ID, err)
			}
			summaries[i] = anvil.RecipeSummary{
				RecipeID:       recipe.ID,
				Valid:          result.Valid,
				TotalLevelCost: result.TotalLevelCost,
				TotalXPCost:    result.TotalXPCost,
				StepCount:      result.StepCount,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	invalid := 0
	for _, s := range summaries {
		if !s.Valid {
			invalid++
		}
	}
	e.logger.Info("computed all recipes", "recipes", len(summaries), "invalid", invalid)

	return summaries, nil
}
