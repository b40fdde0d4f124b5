package mcp

import (
	"context"
	"encoding/json"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type                 string              `json:"type,omitempty"`
	Description          string              `json:"description,omitempty"`
	Default              any                 `json:"default,omitempty"`
	Enum                 []string            `json:"enum,omitempty"`
	Minimum              *float64            `json:"minimum,omitempty"`
	Maximum              *float64            `json:"maximum,omitempty"`
	Items                *Property           `json:"items,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *Property           `json:"additionalProperties,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		computeRecipeTool(),
		billOfMaterialsTool(),
		shoppingListTool(),
		validateRecipeTool(),
		recipeLookupTool(),
		xpConvertTool(),
	}
}

// recipeInputProperties are shared by every tool that takes a recipe either
// by id or inline.
func recipeInputProperties() map[string]Property {
	minLevel := 1.0

	return map[string]Property{
		"recipe_id": {
			Type:        "string",
			Description: "Stored recipe ID. When set, the inline fields are ignored.",
		},
		"item_type": {
			Type:        "string",
			Description: "Base item type for an inline recipe, e.g. sword, pickaxe, helmet",
		},
		"material": {
			Type:        "string",
			Description: "Base item material, e.g. netherite, diamond",
		},
		"base_item_name": {
			Type:        "string",
			Description: "Display name of the base item (alternative to item_type and material)",
		},
		"enchantments": {
			Type:        "array",
			Description: "Enchantments to apply, one book each",
			Items: &Property{
				Type: "object",
				Properties: map[string]Property{
					"id":    {Type: "string", Description: "Enchantment ID, e.g. sharpness"},
					"level": {Type: "integer", Description: "Enchantment level", Minimum: &minLevel},
				},
				Required: []string{"id", "level"},
			},
		},
	}
}

func computeRecipeTool() ToolDefinition {
	return ToolDefinition{
		Name:        "compute_recipe",
		Description: "Find the cheapest order to combine enchanted books onto a base item with an anvil. Returns the crafting tree, per-step level and XP costs, and whether every step stays under the Too Expensive limit.",
		InputSchema: JSONSchema{
			Type:       "object",
			Properties: recipeInputProperties(),
		},
	}
}

func billOfMaterialsTool() ToolDefinition {
	minQty := 1.0
	props := recipeInputProperties()
	props["quantity"] = Property{
		Type:        "integer",
		Description: "How many finished items to make",
		Default:     1,
		Minimum:     &minQty,
	}

	return ToolDefinition{
		Name:        "bill_of_materials",
		Description: "List the enchanted books and base items needed to craft a recipe, scaled by quantity.",
		InputSchema: JSONSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

func shoppingListTool() ToolDefinition {
	minQty := 1.0

	return ToolDefinition{
		Name:        "shopping_list",
		Description: "Combine several stored recipes into one bill of materials with a printable shopping list and total costs. Recipes that cannot be crafted are listed separately and left out of the totals.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"entries": {
					Type:        "array",
					Description: "Recipes to craft",
					Items: &Property{
						Type: "object",
						Properties: map[string]Property{
							"recipe_id": {Type: "string", Description: "Stored recipe ID"},
							"quantity":  {Type: "integer", Description: "How many to craft", Default: 1, Minimum: &minQty},
						},
						Required: []string{"recipe_id"},
					},
				},
			},
			Required: []string{"entries"},
		},
	}
}

func validateRecipeTool() ToolDefinition {
	return ToolDefinition{
		Name:        "validate_recipe",
		Description: "Check a recipe against enchantment rules: conflicts, levels above maximum, enchantments that do not apply to the item, duplicates, and steps that would be Too Expensive.",
		InputSchema: JSONSchema{
			Type:       "object",
			Properties: recipeInputProperties(),
		},
	}
}

func recipeLookupTool() ToolDefinition {
	minLimit := 1.0
	maxLimit := 100.0

	return ToolDefinition{
		Name:        "recipe_lookup",
		Description: "Look up a stored recipe by ID or search recipes by name. Suggests close matches when nothing is found.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"recipe_id": {
					Type:        "string",
					Description: "Exact recipe ID to look up",
				},
				"search": {
					Type:        "string",
					Description: "Search term for recipe name (alternative to recipe_id)",
				},
				"limit": {
					Type:        "integer",
					Description: "Max search results",
					Default:     10,
					Minimum:     &minLimit,
					Maximum:     &maxLimit,
				},
			},
		},
	}
}

func xpConvertTool() ToolDefinition {
	minZero := 0.0

	return ToolDefinition{
		Name:        "xp_convert",
		Description: "Convert between experience levels and experience points. Any combination of fields may be given; each produces its own answer.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"level": {
					Type:        "number",
					Description: "Level (fractional allowed) to convert to total XP",
					Minimum:     &minZero,
				},
				"xp": {
					Type:        "integer",
					Description: "Total XP to convert to a whole level",
					Minimum:     &minZero,
				},
				"from_level": {
					Type:        "integer",
					Description: "Starting level for an XP difference (use with to_level)",
					Minimum:     &minZero,
				},
				"to_level": {
					Type:        "integer",
					Description: "Ending level for an XP difference (use with from_level)",
					Minimum:     &minZero,
				},
				"step_costs": {
					Type:        "array",
					Description: "Anvil step level costs, to price paid one at a time from zero and all at once",
					Items:       &Property{Type: "integer"},
				},
			},
		},
	}
}

// Tool handlers

func (s *Server) toolComputeRecipe(ctx context.Context, args json.RawMessage) (any, error) {
	var req anvil.ComputeRecipeRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.ComputeRecipe(ctx, req)
}

func (s *Server) toolBillOfMaterials(ctx context.Context, args json.RawMessage) (any, error) {
	var req anvil.BillOfMaterialsRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.BillOfMaterials(ctx, req)
}

func (s *Server) toolShoppingList(ctx context.Context, args json.RawMessage) (any, error) {
	var req anvil.ShoppingListRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.ShoppingList(ctx, req)
}

func (s *Server) toolValidateRecipe(ctx context.Context, args json.RawMessage) (any, error) {
	var req anvil.ValidateRecipeRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.ValidateRecipe(ctx, req)
}

func (s *Server) toolRecipeLookup(ctx context.Context, args json.RawMessage) (any, error) {
	var req anvil.RecipeLookupRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.RecipeLookup(ctx, req)
}

func (s *Server) toolXPConvert(ctx context.Context, args json.RawMessage) (any, error) {
	var req anvil.XPConvertRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.XPConvert(req)
}
