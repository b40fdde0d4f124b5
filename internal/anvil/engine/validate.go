package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rsned/anvil-crafting-server/internal/anvil/rules"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// ValidateRecipe executes the validate_recipe tool logic. Rule issues come
// first; a recipe that passes them is also checked for a legal anvil order.
func (e *Engine) ValidateRecipe(ctx context.Context, req anvil.ValidateRecipeRequest) (*anvil.ValidateRecipeResponse, error) {
	recipe, err := e.resolve(ctx, req.RecipeInput)
	if err != nil {
		return nil, err
	}

	issues := e.rules.Check(recipe.base.ItemType, recipe.enchantments, e.catalog)
	for i := range issues {
		if issues[i].Code != anvil.IssueUnknownEnchantment {
			continue
		}
		if names := e.catalog.Suggest(issues[i].Enchantment, maxSuggestions); len(names) > 0 {
			issues[i].Message += fmt.Sprintf("; did you mean %s?", strings.Join(names, ", "))
		}
	}

	if !rules.HasErrors(issues) {
		result, err := e.compute(recipe.base, recipe.enchantments)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			issues = append(issues, anvil.ValidationIssue{
				Code:     anvil.IssueTooExpensive,
				Severity: anvil.SeverityError,
				Message:  fmt.Sprintf("every anvil order has a step above %d levels", anvil.MaxStepCost),
			})
		}
	}

	if issues == nil {
		issues = []anvil.ValidationIssue{}
	}
	return &anvil.ValidateRecipeResponse{
		RecipeID: recipe.id,
		Valid:    !rules.HasErrors(issues),
		Issues:   issues,
	}, nil
}
