package engine

import (
	"context"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// ComputeRecipe executes the compute_recipe tool logic.
func (e *Engine) ComputeRecipe(ctx context.Context, req anvil.ComputeRecipeRequest) (*anvil.ComputeRecipeResponse, error) {
	recipe, err := e.resolve(ctx, req.RecipeInput)
	if err != nil {
		return nil, err
	}

	result, err := e.compute(recipe.base, recipe.enchantments)
	if err != nil {
		return nil, err
	}

	return &anvil.ComputeRecipeResponse{
		RecipeID:   recipe.id,
		RecipeName: recipe.name,
		BaseItem:   recipe.base,
		Result:     result,
		Steps:      buildSteps(result.Tree),
	}, nil
}

// buildSteps lists the anvil operations of a tree in the order they are performed.
func buildSteps(tree anvil.CraftingTreeNode) []anvil.RecipeStep {
	combines := anvil.CombineSteps(tree)
	steps := make([]anvil.RecipeStep, 0, len(combines))
	for i, c := range combines {
		steps = append(steps, anvil.RecipeStep{
			StepNumber:   i + 1,
			NodeID:       c.ID,
			Target:       anvil.Label(c.Left),
			Sacrifice:    anvil.Label(c.Right),
			Result:       c.ResultLabel,
			LevelCost:    c.LevelCost,
			XPCost:       c.XPCost,
			ResultingPWP: c.ResultingPWP,
			Enchantments: c.Enchantments,
			TooExpensive: c.LevelCost > anvil.MaxStepCost,
		})
	}
	return steps
}
