// Package anvil contains the core types for the anvil crafting server.
package anvil

import (
	"math"
	"strconv"
)

// MaxStepCost is the most levels a single anvil operation may cost in survival.
const MaxStepCost = 39

// UnboundedCost marks a recipe for which no legal crafting order exists.
const UnboundedCost = math.MaxInt32

// ============================================
// CATALOG TYPES
// ============================================

// EnchantmentLevel is an enchantment id paired with a level.
type EnchantmentLevel struct {
	ID    string `json:"id" yaml:"id"`
	Level int    `json:"level" yaml:"level"`
}

// EnchantmentSpec is the set of enchantments a player wants on an item.
type EnchantmentSpec []EnchantmentLevel

// EnchantmentDefinition describes an enchantment as loaded from the catalog.
type EnchantmentDefinition struct {
	ID                  string   `json:"id"`
	DisplayName         string   `json:"display_name"`
	MaxLevel            int      `json:"max_level"`
	BookMultiplier      int      `json:"book_multiplier"`
	ItemMultiplier      int      `json:"item_multiplier"`
	BaseConflicts       []string `json:"base_conflicts,omitempty"`
	ApplicableItemTypes []string `json:"applicable_item_types,omitempty"`
}

// ConflictsWith reports whether id is listed in the definition's base conflicts.
func (d EnchantmentDefinition) ConflictsWith(id string) bool {
	for _, c := range d.BaseConflicts {
		if c == id {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the enchantment can go on the given item type.
// An empty applicability list means any item type.
func (d EnchantmentDefinition) AppliesTo(itemType string) bool {
	if len(d.ApplicableItemTypes) == 0 {
		return true
	}
	for _, t := range d.ApplicableItemTypes {
		if t == itemType {
			return true
		}
	}
	return false
}

// BaseItem is an enchantable item such as a Netherite Sword.
type BaseItem struct {
	ItemType    string `json:"item_type"`
	Material    string `json:"material,omitempty"`
	DisplayName string `json:"display_name"`
}

// Recipe is an authored enchanting recipe: a base item and the enchantments to put on it.
type Recipe struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	ItemType     string          `json:"item_type"`
	Material     string          `json:"material,omitempty"`
	Enchantments EnchantmentSpec `json:"enchantments"`
}

// ============================================
// RESULT TYPES
// ============================================

// RecipeResult is the outcome of optimizing one recipe.
type RecipeResult struct {
	Tree            CraftingTreeNode `json:"tree"`
	Valid           bool             `json:"valid"`
	TotalLevelCost  int              `json:"total_level_cost"`
	TotalXPCost     int              `json:"total_xp_cost"`
	TotalXPCostBulk int              `json:"total_xp_cost_bulk"`
	StepCount       int              `json:"step_count"`
	StepCosts       []int            `json:"step_costs"`
}

// BOMItemType distinguishes books from base items in a bill of materials.
type BOMItemType string

const (
	BOMItemBook     BOMItemType = "book"
	BOMItemBaseItem BOMItemType = "base_item"
)

// BOMItem is one line of a bill of materials.
type BOMItem struct {
	Item        string            `json:"item"`
	ItemType    BOMItemType       `json:"item_type"`
	Enchantment *EnchantmentLevel `json:"enchantment,omitempty"` // books only
	Quantity    int               `json:"quantity"`
}

// Key identifies the item for merging purposes.
func (i BOMItem) Key() string {
	if i.ItemType == BOMItemBook && i.Enchantment != nil {
		return "book:" + i.Enchantment.ID + ":" + strconv.Itoa(i.Enchantment.Level)
	}
	return "base:" + i.Item
}

// BillOfMaterials is the flattened shopping list for one or more crafting trees.
type BillOfMaterials struct {
	Items    []BOMItem `json:"items"`
	BaseItem BaseItem  `json:"base_item"`
}

// ============================================
// TOOL REQUEST/RESPONSE TYPES
// ============================================

// RecipeInput identifies a recipe either by catalog id or inline.
type RecipeInput struct {
	RecipeID     string          `json:"recipe_id,omitempty"`
	ItemType     string          `json:"item_type,omitempty"`
	Material     string          `json:"material,omitempty"`
	BaseItemName string          `json:"base_item_name,omitempty"`
	Enchantments EnchantmentSpec `json:"enchantments,omitempty"`
}

// ComputeRecipeRequest is the input for the compute_recipe tool.
type ComputeRecipeRequest struct {
	RecipeInput
}

// ComputeRecipeResponse is the output for the compute_recipe tool.
type ComputeRecipeResponse struct {
	RecipeID   string       `json:"recipe_id,omitempty"`
	RecipeName string       `json:"recipe_name,omitempty"`
	BaseItem   BaseItem     `json:"base_item"`
	Result     RecipeResult `json:"result"`
	Steps      []RecipeStep `json:"steps"`
}

// RecipeStep is one anvil operation in execution order.
type RecipeStep struct {
	StepNumber   int      `json:"step_number"`
	NodeID       string   `json:"node_id"`
	Target       string   `json:"target"`
	Sacrifice    string   `json:"sacrifice"`
	Result       string   `json:"result"`
	LevelCost    int      `json:"level_cost"`
	XPCost       int      `json:"xp_cost"`
	ResultingPWP int      `json:"resulting_pwp"`
	Enchantments []string `json:"enchantments"`
	TooExpensive bool     `json:"too_expensive,omitempty"`
}

// BillOfMaterialsRequest is the input for the bill_of_materials tool.
type BillOfMaterialsRequest struct {
	RecipeInput
	Quantity int `json:"quantity"`
}

// BillOfMaterialsResponse is the output for the bill_of_materials tool.
type BillOfMaterialsResponse struct {
	RecipeID        string          `json:"recipe_id,omitempty"`
	Quantity        int             `json:"quantity"`
	BillOfMaterials BillOfMaterials `json:"bill_of_materials"`
}

// ShoppingListEntry is one cart line: a recipe and how many items to make.
type ShoppingListEntry struct {
	RecipeID string `json:"recipe_id"`
	Quantity int    `json:"quantity"`
}

// ShoppingListRequest is the input for the shopping_list tool.
type ShoppingListRequest struct {
	Entries []ShoppingListEntry `json:"entries"`
}

// ShoppingListResponse is the output for the shopping_list tool.
type ShoppingListResponse struct {
	BillOfMaterials BillOfMaterials `json:"bill_of_materials"`
	Text            string          `json:"text"`
	TotalLevelCost  int             `json:"total_level_cost"`
	TotalXPCost     int             `json:"total_xp_cost"`
	InvalidRecipes  []string        `json:"invalid_recipes,omitempty"`
	UnknownRecipes  []string        `json:"unknown_recipes,omitempty"`
}

// IssueSeverity grades a validation issue.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// IssueCode classifies a validation issue.
type IssueCode string

const (
	IssueUnknownEnchantment IssueCode = "unknown_enchantment"
	IssueDuplicate          IssueCode = "duplicate_enchantment"
	IssueInvalidLevel       IssueCode = "invalid_level"
	IssueAboveMaxLevel      IssueCode = "above_max_level"
	IssueConflict           IssueCode = "conflict"
	IssueNotApplicable      IssueCode = "not_applicable"
	IssueTooExpensive       IssueCode = "too_expensive"
)

// ValidationIssue is a problem found while checking a recipe against the rules.
type ValidationIssue struct {
	Code        IssueCode     `json:"code"`
	Severity    IssueSeverity `json:"severity"`
	Enchantment string        `json:"enchantment,omitempty"`
	Other       string        `json:"other,omitempty"`
	Message     string        `json:"message"`
}

// ValidateRecipeRequest is the input for the validate_recipe tool.
type ValidateRecipeRequest struct {
	RecipeInput
}

// ValidateRecipeResponse is the output for the validate_recipe tool.
type ValidateRecipeResponse struct {
	RecipeID string            `json:"recipe_id,omitempty"`
	Valid    bool              `json:"valid"`
	Issues   []ValidationIssue `json:"issues"`
}

// RecipeLookupRequest is the input for the recipe_lookup tool.
type RecipeLookupRequest struct {
	RecipeID string `json:"recipe_id,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// RecipeLookupResponse is the output for the recipe_lookup tool.
type RecipeLookupResponse struct {
	Recipe        *Recipe           `json:"recipe,omitempty"`
	SearchResults []RecipeSearchHit `json:"search_results,omitempty"`
	Suggestions   []string          `json:"suggestions,omitempty"`
}

// RecipeSearchHit is a lightweight recipe match for search results.
type RecipeSearchHit struct {
	RecipeID string `json:"recipe_id"`
	Name     string `json:"name"`
	ItemType string `json:"item_type"`
}

// XPConvertRequest is the input for the xp_convert tool. Every field is optional;
// the response fills in the conversions the request asked for.
type XPConvertRequest struct {
	Level     *float64 `json:"level,omitempty"`
	XP        *int     `json:"xp,omitempty"`
	FromLevel *int     `json:"from_level,omitempty"`
	ToLevel   *int     `json:"to_level,omitempty"`
	StepCosts []int    `json:"step_costs,omitempty"`
}

// XPConvertResponse is the output for the xp_convert tool.
type XPConvertResponse struct {
	XPForLevel    *int `json:"xp_for_level,omitempty"`
	LevelForXP    *int `json:"level_for_xp,omitempty"`
	XPBetween     *int `json:"xp_between,omitempty"`
	IncrementalXP *int `json:"incremental_xp,omitempty"`
	BulkXP        *int `json:"bulk_xp,omitempty"`
}

// RecipeSummary is a compact per-recipe result used by batch computation.
type RecipeSummary struct {
	RecipeID       string `json:"recipe_id"`
	Valid          bool   `json:"valid"`
	TotalLevelCost int    `json:"total_level_cost"`
	TotalXPCost    int    `json:"total_xp_cost"`
	StepCount      int    `json:"step_count"`
}
