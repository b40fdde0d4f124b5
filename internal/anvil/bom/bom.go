// Package bom flattens crafting trees into bills of materials.
package bom

import (
	"regexp"
	"sort"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// UnknownBaseItem stands in when a bill has no base item to report.
var UnknownBaseItem = anvil.BaseItem{ItemType: "unknown", DisplayName: "Unknown Item"}

var bookPattern = regexp.MustCompile(`^(.+?)(?: ([IVXLCDM]+))? Book$`)

// Catalog resolves leaf labels back to definitions.
type Catalog interface {
	EnchantmentByName(name string) (anvil.EnchantmentDefinition, bool)
	BaseItemByName(name string) (anvil.BaseItem, bool)
}

// Generate counts the leaves of a crafting tree. Leaves named like
// "Sharpness V Book" become books; anything else is a base item.
func Generate(tree anvil.CraftingTreeNode, catalog Catalog) *anvil.BillOfMaterials {
	counts := make(map[string]*anvil.BOMItem)
	var order []string
	base := UnknownBaseItem
	foundBase := false

	for _, leaf := range anvil.Leaves(tree) {
		item := classify(leaf.Item, catalog)
		if item.ItemType == anvil.BOMItemBaseItem && !foundBase {
			base = resolveBase(leaf.Item, catalog)
			foundBase = true
		}

		key := item.Key()
		if existing, ok := counts[key]; ok {
			existing.Quantity++
			continue
		}
		counts[key] = &item
		order = append(order, key)
	}

	items := make([]anvil.BOMItem, 0, len(order))
	for _, key := range order {
		items = append(items, *counts[key])
	}
	sortItems(items)

	return &anvil.BillOfMaterials{Items: items, BaseItem: base}
}

// classify turns a leaf label into a single-quantity BOM line.
func classify(label string, catalog Catalog) anvil.BOMItem {
	m := bookPattern.FindStringSubmatch(label)
	if m == nil {
		return anvil.BOMItem{Item: label, ItemType: anvil.BOMItemBaseItem, Quantity: 1}
	}

	name, level := m[1], 1
	if m[2] != "" {
		n, ok := anvil.ParseRoman(m[2])
		if !ok {
			name = m[1] + " " + m[2]
		} else {
			level = n
		}
	}

	id := anvil.Slug(name)
	if def, ok := catalog.EnchantmentByName(name); ok {
		id = def.ID
	}

	return anvil.BOMItem{
		Item:        label,
		ItemType:    anvil.BOMItemBook,
		Enchantment: &anvil.EnchantmentLevel{ID: id, Level: level},
		Quantity:    1,
	}
}

func resolveBase(name string, catalog Catalog) anvil.BaseItem {
	if item, ok := catalog.BaseItemByName(name); ok {
		return item
	}
	return anvil.BaseItem{ItemType: anvil.Slug(name), DisplayName: name}
}

// Aggregate merges bills, summing quantities of identical items. The base
// item of the result is that of the first bill. Inputs are not modified; a
// single bill is returned as is.
func Aggregate(boms []*anvil.BillOfMaterials) *anvil.BillOfMaterials {
	switch len(boms) {
	case 0:
		return &anvil.BillOfMaterials{Items: []anvil.BOMItem{}, BaseItem: UnknownBaseItem}
	case 1:
		return boms[0]
	}

	counts := make(map[string]*anvil.BOMItem)
	var order []string
	for _, b := range boms {
		if b == nil {
			continue
		}
		for _, item := range b.Items {
			key := item.Key()
			if existing, ok := counts[key]; ok {
				existing.Quantity += item.Quantity
				continue
			}
			merged := copyItem(item)
			counts[key] = &merged
			order = append(order, key)
		}
	}

	items := make([]anvil.BOMItem, 0, len(order))
	for _, key := range order {
		items = append(items, *counts[key])
	}
	sortItems(items)

	base := UnknownBaseItem
	if boms[0] != nil {
		base = boms[0].BaseItem
	}
	return &anvil.BillOfMaterials{Items: items, BaseItem: base}
}

// Scale returns a copy of b with every quantity multiplied by n.
func Scale(b *anvil.BillOfMaterials, n int) *anvil.BillOfMaterials {
	out := &anvil.BillOfMaterials{Items: make([]anvil.BOMItem, 0, len(b.Items)), BaseItem: b.BaseItem}
	for _, item := range b.Items {
		scaled := copyItem(item)
		scaled.Quantity *= n
		out.Items = append(out.Items, scaled)
	}
	return out
}

func copyItem(item anvil.BOMItem) anvil.BOMItem {
	if item.Enchantment != nil {
		e := *item.Enchantment
		item.Enchantment = &e
	}
	return item
}

// sortItems orders books before base items, then by name.
func sortItems(items []anvil.BOMItem) {
	sort.SliceStable(items, func(i, j int) bool {
		bi, bj := items[i].ItemType == anvil.BOMItemBook, items[j].ItemType == anvil.BOMItemBook
		if bi != bj {
			return bi
		}
		return items[i].Item < items[j].Item
	})
}
