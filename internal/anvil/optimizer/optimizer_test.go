package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/anvil-crafting-server/internal/anvil/catalog"
	"github.com/rsned/anvil-crafting-server/internal/anvil/rules"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

var netheriteSword = anvil.BaseItem{ItemType: "sword", Material: "netherite", DisplayName: "Netherite Sword"}

func vanilla(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Vanilla()
	require.NoError(t, err)
	return c
}

func TestPWPCost(t *testing.T) {
	want := []int{0, 1, 3, 7, 15, 31, 63, 127, 255, 511, 1023}
	for n, w := range want {
		assert.Equal(t, w, PWPCost(n), "n=%d", n)
	}
	assert.Zero(t, PWPCost(-1))
}

func TestCombineCost(t *testing.T) {
	o := New(vanilla(t))

	worn := &WorkItem{PWP: 2}
	assert.Equal(t, 6, o.CombineCost(worn, &WorkItem{PWP: 2}))

	sword := &WorkItem{IsBaseItem: true}
	book := &WorkItem{Enchantments: []anvil.EnchantmentLevel{{ID: "silk_touch", Level: 1}}}
	assert.Equal(t, 4, o.CombineCost(sword, book))

	// Sacrificing an item charges the item multiplier.
	donor := &WorkItem{IsBaseItem: true, Enchantments: []anvil.EnchantmentLevel{{ID: "silk_touch", Level: 1}}}
	assert.Equal(t, 8, o.CombineCost(sword, donor))

	unknown := &WorkItem{Enchantments: []anvil.EnchantmentLevel{{ID: "homebrew", Level: 9}}}
	assert.Equal(t, 0, o.CombineCost(sword, unknown))
}

func TestSingleEnchantment(t *testing.T) {
	o := New(vanilla(t))

	result, err := o.ComputeRecipe(anvil.EnchantmentSpec{{ID: "sharpness", Level: 5}}, netheriteSword)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 5, result.TotalLevelCost)
	assert.Equal(t, []int{5}, result.StepCosts)
	assert.Equal(t, 1, result.StepCount)
	assert.Equal(t, 55, result.TotalXPCost)

	root, ok := result.Tree.(*anvil.CombineNode)
	require.True(t, ok)
	assert.Equal(t, 5, root.LevelCost)
	assert.Equal(t, 1, root.ResultingPWP)
	assert.Equal(t, "Netherite Sword", root.ResultLabel)
	assert.Equal(t, []string{"Sharpness V"}, root.Enchantments)

	left, ok := root.Left.(*anvil.LeafNode)
	require.True(t, ok)
	assert.Equal(t, "Netherite Sword", left.Item)
	right, ok := root.Right.(*anvil.LeafNode)
	require.True(t, ok)
	assert.Equal(t, "Sharpness V Book", right.Item)
}

func TestEmptySpecIsBareLeaf(t *testing.T) {
	o := New(vanilla(t))

	result, err := o.ComputeRecipe(nil, netheriteSword)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Zero(t, result.TotalLevelCost)
	assert.Zero(t, result.StepCount)
	assert.Empty(t, result.StepCosts)

	leaf, ok := result.Tree.(*anvil.LeafNode)
	require.True(t, ok)
	assert.Equal(t, "Netherite Sword", leaf.Item)
	assert.Empty(t, leaf.Enchantments)

	tree, err := o.ComputeOptimalTree(nil, "Book")
	require.NoError(t, err)
	assert.Equal(t, "Book", anvil.Label(tree))
}

func TestThreeBooks(t *testing.T) {
	o := New(vanilla(t))
	spec := anvil.EnchantmentSpec{
		{ID: "sharpness", Level: 5},
		{ID: "unbreaking", Level: 3},
		{ID: "mending", Level: 1},
	}

	result, err := o.ComputeRecipe(spec, netheriteSword)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	// Sharpness V is the first book, so it is never charged as a sacrifice.
	assert.Equal(t, []int{3, 3, 13}, result.StepCosts)
	assert.Equal(t, 19, result.TotalLevelCost)
	assert.Equal(t, 3, result.StepCount)

	leaves := anvil.Leaves(result.Tree)
	require.Len(t, leaves, 4)
	assert.Equal(t, "Netherite Sword", leaves[0].Item)
	assert.Equal(t, "Sharpness V Book", leaves[1].Item)
	assert.Equal(t, "Unbreaking III Book", leaves[2].Item)
	assert.Equal(t, "Mending Book", leaves[3].Item)

	steps := anvil.CombineSteps(result.Tree)
	require.Len(t, steps, 3)
	assert.Equal(t, EnchantedBookLabel, steps[0].ResultLabel)
	assert.Equal(t, 1, steps[0].ResultingPWP)
	assert.Equal(t, 2, steps[1].ResultingPWP)
	assert.Equal(t, 3, steps[2].ResultingPWP)
	assert.Equal(t, []string{"Sharpness V", "Unbreaking III", "Mending"}, steps[2].Enchantments)
}

func TestNodeIDsAreUnique(t *testing.T) {
	o := New(vanilla(t))
	spec := anvil.EnchantmentSpec{
		{ID: "protection", Level: 4},
		{ID: "unbreaking", Level: 3},
		{ID: "mending", Level: 1},
		{ID: "thorns", Level: 3},
	}

	tree, err := o.ComputeOptimalTree(spec, "Diamond Chestplate")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, leaf := range anvil.Leaves(tree) {
		assert.False(t, seen[leaf.ID], leaf.ID)
		seen[leaf.ID] = true
	}
	for _, step := range anvil.CombineSteps(tree) {
		assert.False(t, seen[step.ID], step.ID)
		seen[step.ID] = true
	}
	assert.Len(t, seen, 2*len(spec)+1)
}

func TestUnsatisfiableRecipe(t *testing.T) {
	o := New(vanilla(t))
	spec := anvil.EnchantmentSpec{
		{ID: "silk_touch", Level: 10},
		{ID: "silk_touch", Level: 10},
	}

	_, err := o.ComputeOptimalTree(spec, "Diamond Pickaxe")
	assert.ErrorIs(t, err, ErrNoValidOrdering)

	pickaxe := anvil.BaseItem{ItemType: "pickaxe", Material: "diamond", DisplayName: "Diamond Pickaxe"}
	result, err := o.ComputeRecipe(spec, pickaxe)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, anvil.UnboundedCost, result.TotalLevelCost)
	assert.Equal(t, []int{40, 81}, result.StepCosts)
	require.NotNil(t, result.Tree)

	assert.False(t, o.IsRecipeValid(spec, pickaxe))
}

func TestUnknownEnchantmentIsFree(t *testing.T) {
	o := New(vanilla(t))

	result, err := o.ComputeRecipe(anvil.EnchantmentSpec{{ID: "frost_bite", Level: 3}}, netheriteSword)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Zero(t, result.TotalLevelCost)
	assert.Equal(t, "Frost Bite III Book", anvil.Leaves(result.Tree)[1].Item)
}

func TestRejectsBadInput(t *testing.T) {
	o := New(vanilla(t))

	_, err := o.ComputeRecipe(anvil.EnchantmentSpec{{ID: "sharpness", Level: 0}}, netheriteSword)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

var elevenHelmetBooks = anvil.EnchantmentSpec{
	{ID: "protection", Level: 4},
	{ID: "fire_protection", Level: 4},
	{ID: "blast_protection", Level: 4},
	{ID: "projectile_protection", Level: 4},
	{ID: "respiration", Level: 3},
	{ID: "aqua_affinity", Level: 1},
	{ID: "thorns", Level: 3},
	{ID: "unbreaking", Level: 3},
	{ID: "mending", Level: 1},
	{ID: "binding_curse", Level: 1},
	{ID: "vanishing_curse", Level: 1},
}

func TestLargeSpecIsInvalidNotAnError(t *testing.T) {
	o := New(vanilla(t))
	helmet := anvil.BaseItem{ItemType: "helmet", Material: "diamond", DisplayName: "Diamond Helmet"}

	result, err := o.ComputeRecipe(elevenHelmetBooks, helmet)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, anvil.UnboundedCost, result.TotalLevelCost)
	assert.Equal(t, len(elevenHelmetBooks), result.StepCount)
	require.Len(t, result.StepCosts, len(elevenHelmetBooks))
	assert.Len(t, anvil.Leaves(result.Tree), len(elevenHelmetBooks)+1)

	// Books merge most expensive first; thorns (book multiplier 4, level 3) leads.
	assert.Equal(t, "Thorns III Book", anvil.Leaves(result.Tree)[0].Item)
	assert.Greater(t, result.StepCosts[len(result.StepCosts)-1], anvil.MaxStepCost)

	_, err = o.ComputeOptimalTree(elevenHelmetBooks, helmet.DisplayName)
	assert.ErrorIs(t, err, ErrNoValidOrdering)
	assert.False(t, o.IsRecipeValid(elevenHelmetBooks, helmet))
}

func TestHugeSpecSaturatesCosts(t *testing.T) {
	o := New(vanilla(t))

	var spec anvil.EnchantmentSpec
	for i := 0; i < 40; i++ {
		spec = append(spec, anvil.EnchantmentLevel{ID: "unbreaking", Level: 3})
	}
	spec = append(spec, anvil.EnchantmentLevel{ID: "sharpness", Level: anvil.UnboundedCost})

	result, err := o.ComputeRecipe(spec, netheriteSword)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, anvil.UnboundedCost, result.TotalLevelCost)
	assert.Equal(t, anvil.UnboundedCost, result.TotalXPCost)
	for _, c := range result.StepCosts {
		assert.GreaterOrEqual(t, c, 0)
		assert.LessOrEqual(t, c, anvil.UnboundedCost)
	}
	assert.Equal(t, anvil.UnboundedCost, PWPCost(64))
}

func TestDeterministic(t *testing.T) {
	o := New(vanilla(t))
	spec := anvil.EnchantmentSpec{
		{ID: "sharpness", Level: 5},
		{ID: "looting", Level: 3},
		{ID: "unbreaking", Level: 3},
		{ID: "sweeping_edge", Level: 3},
		{ID: "mending", Level: 1},
	}

	first, err := o.ComputeRecipe(spec, netheriteSword)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := o.ComputeRecipe(spec, netheriteSword)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMatchesExhaustiveSearch(t *testing.T) {
	o := New(vanilla(t))
	specs := []anvil.EnchantmentSpec{
		{{ID: "sharpness", Level: 5}, {ID: "looting", Level: 3}, {ID: "fire_aspect", Level: 2}, {ID: "mending", Level: 1}},
		{{ID: "efficiency", Level: 5}, {ID: "fortune", Level: 3}, {ID: "unbreaking", Level: 3}, {ID: "mending", Level: 1}},
		{{ID: "protection", Level: 4}, {ID: "thorns", Level: 3}, {ID: "unbreaking", Level: 3}, {ID: "mending", Level: 1}, {ID: "respiration", Level: 3}},
		{{ID: "unbreaking", Level: 3}, {ID: "unbreaking", Level: 3}, {ID: "unbreaking", Level: 3}},
	}

	for _, spec := range specs {
		books, err := o.books(spec)
		require.NoError(t, err)

		bestTotal := anvil.UnboundedCost
		var bestLeaves []*anvil.LeafNode
		permute(len(books), func(order []int) {
			tree := o.buildTree(books, order, "Item", &idGen{})
			total := 0
			for _, step := range anvil.CombineSteps(tree) {
				if step.LevelCost > anvil.MaxStepCost {
					return
				}
				total += step.LevelCost
			}
			if total < bestTotal {
				bestTotal = total
				bestLeaves = anvil.Leaves(tree)
			}
		})

		result, err := o.ComputeRecipe(spec, anvil.BaseItem{DisplayName: "Item"})
		require.NoError(t, err)
		if bestLeaves == nil {
			assert.False(t, result.Valid, spec)
			continue
		}
		assert.True(t, result.Valid, spec)
		assert.Equal(t, bestTotal, result.TotalLevelCost, spec)

		got := anvil.Leaves(result.Tree)
		require.Len(t, got, len(bestLeaves))
		for i := range got {
			assert.Equal(t, bestLeaves[i].Item, got[i].Item)
		}
	}
}

func TestCostModifierRules(t *testing.T) {
	r := rules.New([]anvil.Rule{
		&anvil.CostModifierRule{
			ID:           "pricey-mending",
			Enchantments: []string{"mending"},
			Modifier:     anvil.CostModifier{BookMultiplierAdd: 1, BookMultiplierMult: 2},
		},
		&anvil.MaxLevelOverrideRule{ID: "mending-2", Enchantment: "mending", MaxLevel: 2},
	})
	spec := anvil.EnchantmentSpec{{ID: "mending", Level: 1}}

	plain, err := New(vanilla(t)).ComputeRecipe(spec, netheriteSword)
	require.NoError(t, err)
	assert.Equal(t, 2, plain.TotalLevelCost)
	assert.Equal(t, "Mending Book", anvil.Leaves(plain.Tree)[1].Item)

	ruled, err := New(vanilla(t), WithRules(r)).ComputeRecipe(spec, netheriteSword)
	require.NoError(t, err)
	assert.Equal(t, 6, ruled.TotalLevelCost)
	assert.Equal(t, "Mending I Book", anvil.Leaves(ruled.Tree)[1].Item)
}

// permute calls fn with every permutation of 0..n-1 in lexicographic order.
func permute(n int, fn func([]int)) {
	order := make([]int, 0, n)
	used := make([]bool, n)
	var rec func()
	rec = func() {
		if len(order) == n {
			fn(order)
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			order = append(order, i)
			rec()
			order = order[:len(order)-1]
			used[i] = false
		}
	}
	rec()
}
