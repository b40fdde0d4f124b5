package bom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/anvil-crafting-server/internal/anvil/catalog"
	"github.com/rsned/anvil-crafting-server/internal/anvil/optimizer"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

func vanilla(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Vanilla()
	require.NoError(t, err)
	return c
}

func swordTree(t *testing.T, c *catalog.Catalog) anvil.CraftingTreeNode {
	t.Helper()
	tree, err := optimizer.New(c).ComputeOptimalTree(anvil.EnchantmentSpec{
		{ID: "sharpness", Level: 5},
		{ID: "mending", Level: 1},
		{ID: "unbreaking", Level: 3},
	}, "Netherite Sword")
	require.NoError(t, err)
	return tree
}

func TestGenerate(t *testing.T) {
	c := vanilla(t)
	b := Generate(swordTree(t, c), c)

	assert.Equal(t, anvil.BaseItem{ItemType: "sword", Material: "netherite", DisplayName: "Netherite Sword"}, b.BaseItem)
	require.Len(t, b.Items, 4)

	assert.Equal(t, "Mending Book", b.Items[0].Item)
	assert.Equal(t, &anvil.EnchantmentLevel{ID: "mending", Level: 1}, b.Items[0].Enchantment)
	assert.Equal(t, "Sharpness V Book", b.Items[1].Item)
	assert.Equal(t, &anvil.EnchantmentLevel{ID: "sharpness", Level: 5}, b.Items[1].Enchantment)
	assert.Equal(t, "Unbreaking III Book", b.Items[2].Item)
	assert.Equal(t, anvil.BOMItem{Item: "Netherite Sword", ItemType: anvil.BOMItemBaseItem, Quantity: 1}, b.Items[3])

	for _, item := range b.Items {
		assert.Equal(t, 1, item.Quantity)
	}
}

func TestGenerateMergesDuplicates(t *testing.T) {
	c := vanilla(t)
	tree := &anvil.CombineNode{
		ID:   "node-5",
		Left: &anvil.LeafNode{ID: "node-4", Item: "Iron Pickaxe"},
		Right: &anvil.CombineNode{
			ID:    "node-3",
			Left:  &anvil.LeafNode{ID: "node-1", Item: "Efficiency IV Book"},
			Right: &anvil.LeafNode{ID: "node-2", Item: "Efficiency IV Book"},
		},
	}

	b := Generate(tree, c)
	require.Len(t, b.Items, 2)
	assert.Equal(t, 2, b.Items[0].Quantity)
	assert.Equal(t, "book:efficiency:4", b.Items[0].Key())
	assert.Equal(t, "base:Iron Pickaxe", b.Items[1].Key())
}

func TestGenerateUnknownNames(t *testing.T) {
	c := vanilla(t)
	tree := &anvil.CombineNode{
		ID:    "node-3",
		Left:  &anvil.LeafNode{ID: "node-2", Item: "Magic Wand"},
		Right: &anvil.LeafNode{ID: "node-1", Item: "Frost Bite III Book"},
	}

	b := Generate(tree, c)
	require.Len(t, b.Items, 2)
	assert.Equal(t, &anvil.EnchantmentLevel{ID: "frost_bite", Level: 3}, b.Items[0].Enchantment)
	assert.Equal(t, anvil.BaseItem{ItemType: "magic_wand", DisplayName: "Magic Wand"}, b.BaseItem)
}

func TestAggregate(t *testing.T) {
	c := vanilla(t)
	one := Generate(swordTree(t, c), c)
	two := Generate(swordTree(t, c), c)

	before := *one.Items[0].Enchantment
	sum := Aggregate([]*anvil.BillOfMaterials{one, two})
	require.Len(t, sum.Items, 4)
	for _, item := range sum.Items {
		assert.Equal(t, 2, item.Quantity, item.Item)
	}
	assert.Equal(t, one.BaseItem, sum.BaseItem)

	// Inputs are untouched.
	for _, item := range one.Items {
		assert.Equal(t, 1, item.Quantity)
	}
	sum.Items[0].Enchantment.Level = 99
	assert.Equal(t, before, *one.Items[0].Enchantment)
}

func TestAggregateEdgeCases(t *testing.T) {
	empty := Aggregate(nil)
	assert.Empty(t, empty.Items)
	assert.Equal(t, "Unknown Item", empty.BaseItem.DisplayName)

	c := vanilla(t)
	one := Generate(swordTree(t, c), c)
	assert.Same(t, one, Aggregate([]*anvil.BillOfMaterials{one}))
}

func TestScale(t *testing.T) {
	c := vanilla(t)
	one := Generate(swordTree(t, c), c)

	tripled := Scale(one, 3)
	require.Len(t, tripled.Items, len(one.Items))
	for i := range tripled.Items {
		assert.Equal(t, 3, tripled.Items[i].Quantity)
		assert.Equal(t, 1, one.Items[i].Quantity)
	}
	assert.Equal(t, Aggregate([]*anvil.BillOfMaterials{one, one, one}), tripled)
}
