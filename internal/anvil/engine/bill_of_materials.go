package engine

import (
	"context"
	"fmt"

	"github.com/rsned/anvil-crafting-server/internal/anvil/bom"
	"github.com/rsned/anvil-crafting-server/internal/anvil/export"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// BillOfMaterials executes the bill_of_materials tool logic.
func (e *Engine) BillOfMaterials(ctx context.Context, req anvil.BillOfMaterialsRequest) (*anvil.BillOfMaterialsResponse, error) {
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	recipe, err := e.resolve(ctx, req.RecipeInput)
	if err != nil {
		return nil, err
	}

	result, err := e.compute(recipe.base, recipe.enchantments)
	if err != nil {
		return nil, err
	}

	materials := bom.Scale(bom.Generate(result.Tree, e.catalog), req.Quantity)
	return &anvil.BillOfMaterialsResponse{
		RecipeID:        recipe.id,
		Quantity:        req.Quantity,
		BillOfMaterials: *materials,
	}, nil
}

// ShoppingList executes the shopping_list tool logic. Each cart entry is a
// stored recipe and a quantity; the result is one merged bill of materials.
// Unknown recipes and recipes with no legal order are reported and left out
// of the bill.
func (e *Engine) ShoppingList(ctx context.Context, req anvil.ShoppingListRequest) (*anvil.ShoppingListResponse, error) {
	if len(req.Entries) == 0 {
		return nil, fmt.Errorf("%w: shopping list has no entries", ErrInvalidRequest)
	}

	resp := &anvil.ShoppingListResponse{}
	var bills []*anvil.BillOfMaterials

	for _, entry := range req.Entries {
		quantity := entry.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		recipe, err := e.recipes.GetRecipe(ctx, entry.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("getting recipe: %w", err)
		}
		if recipe == nil {
			resp.UnknownRecipes = append(resp.UnknownRecipes, entry.RecipeID)
			continue
		}

		base := e.catalog.ResolveBaseItem(recipe.ItemType, recipe.Material, "")
		result, err := e.compute(base, recipe.Enchantments)
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", recipe.ID, err)
		}
		if !result.Valid {
			resp.InvalidRecipes = append(resp.InvalidRecipes, recipe.ID)
			continue
		}

		resp.TotalLevelCost += result.TotalLevelCost * quantity
		resp.TotalXPCost += result.TotalXPCost * quantity
		bills = append(bills, bom.Scale(bom.Generate(result.Tree, e.catalog), quantity))
	}

	merged := bom.Aggregate(bills)
	resp.BillOfMaterials = *merged
	resp.Text = export.Text(merged)

	return resp, nil
}
