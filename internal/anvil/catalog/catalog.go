// Package catalog provides read-only lookups over enchantment and base item definitions.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

//go:embed data/enchantments.json data/base_items.json
var vanillaFS embed.FS

// Catalog is an immutable, in-memory index of definitions. It is safe for
// concurrent use once built.
type Catalog struct {
	enchantments  map[string]anvil.EnchantmentDefinition
	enchantByName map[string]string // lowercased display name -> id
	enchantOrder  []string

	baseItems  []anvil.BaseItem
	baseByKey  map[string]anvil.BaseItem
	baseByName map[string]anvil.BaseItem
}

// New builds a Catalog. Later definitions with a duplicate id replace earlier ones.
func New(enchantments []anvil.EnchantmentDefinition, baseItems []anvil.BaseItem) *Catalog {
	c := &Catalog{
		enchantments:  make(map[string]anvil.EnchantmentDefinition, len(enchantments)),
		enchantByName: make(map[string]string, len(enchantments)),
		baseByKey:     make(map[string]anvil.BaseItem, len(baseItems)),
		baseByName:    make(map[string]anvil.BaseItem, len(baseItems)),
	}

	for _, def := range enchantments {
		if def.ID == "" {
			continue
		}
		if def.DisplayName == "" {
			def.DisplayName = anvil.FormatID(def.ID)
		}
		if _, exists := c.enchantments[def.ID]; !exists {
			c.enchantOrder = append(c.enchantOrder, def.ID)
		}
		c.enchantments[def.ID] = def
		c.enchantByName[strings.ToLower(def.DisplayName)] = def.ID
	}
	sort.Strings(c.enchantOrder)

	for _, item := range baseItems {
		if item.ItemType == "" {
			continue
		}
		if item.DisplayName == "" {
			item.DisplayName = composeDisplayName(item.ItemType, item.Material)
		}
		c.baseItems = append(c.baseItems, item)
		c.baseByKey[baseKey(item.ItemType, item.Material)] = item
		c.baseByName[strings.ToLower(item.DisplayName)] = item
	}

	return c
}

// VanillaData returns the embedded vanilla enchantment and base item definitions.
func VanillaData() ([]anvil.EnchantmentDefinition, []anvil.BaseItem, error) {
	data, err := vanillaFS.ReadFile("data/enchantments.json")
	if err != nil {
		return nil, nil, fmt.Errorf("reading embedded enchantments: %w", err)
	}
	var enchantments []anvil.EnchantmentDefinition
	if err := json.Unmarshal(data, &enchantments); err != nil {
		return nil, nil, fmt.Errorf("parsing embedded enchantments: %w", err)
	}

	data, err = vanillaFS.ReadFile("data/base_items.json")
	if err != nil {
		return nil, nil, fmt.Errorf("reading embedded base items: %w", err)
	}
	var items []anvil.BaseItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, fmt.Errorf("parsing embedded base items: %w", err)
	}

	return enchantments, items, nil
}

// Vanilla builds a Catalog from the embedded vanilla data.
func Vanilla() (*Catalog, error) {
	enchantments, items, err := VanillaData()
	if err != nil {
		return nil, err
	}
	return New(enchantments, items), nil
}

// Enchantment looks up an enchantment by id.
func (c *Catalog) Enchantment(id string) (anvil.EnchantmentDefinition, bool) {
	def, ok := c.enchantments[id]
	return def, ok
}

// EnchantmentByName looks up an enchantment by display name, ignoring case.
func (c *Catalog) EnchantmentByName(name string) (anvil.EnchantmentDefinition, bool) {
	id, ok := c.enchantByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return anvil.EnchantmentDefinition{}, false
	}
	return c.enchantments[id], true
}

// Enchantments returns every definition ordered by id.
func (c *Catalog) Enchantments() []anvil.EnchantmentDefinition {
	out := make([]anvil.EnchantmentDefinition, 0, len(c.enchantOrder))
	for _, id := range c.enchantOrder {
		out = append(out, c.enchantments[id])
	}
	return out
}

// BaseItem looks up a base item by type and material.
func (c *Catalog) BaseItem(itemType, material string) (anvil.BaseItem, bool) {
	item, ok := c.baseByKey[baseKey(itemType, material)]
	return item, ok
}

// BaseItemByName looks up a base item by display name, ignoring case.
func (c *Catalog) BaseItemByName(name string) (anvil.BaseItem, bool) {
	item, ok := c.baseByName[strings.ToLower(strings.TrimSpace(name))]
	return item, ok
}

// BaseItems returns every base item in load order.
func (c *Catalog) BaseItems() []anvil.BaseItem {
	out := make([]anvil.BaseItem, len(c.baseItems))
	copy(out, c.baseItems)
	return out
}

// ResolveBaseItem finds the catalog entry for a base item, falling back to a
// composed display name when the catalog does not know it.
func (c *Catalog) ResolveBaseItem(itemType, material, displayName string) anvil.BaseItem {
	if itemType != "" {
		if item, ok := c.BaseItem(itemType, material); ok {
			return item
		}
	}
	if displayName != "" {
		if item, ok := c.BaseItemByName(displayName); ok {
			return item
		}
		if itemType == "" {
			itemType = anvil.Slug(displayName)
		}
		return anvil.BaseItem{ItemType: itemType, Material: material, DisplayName: displayName}
	}
	return anvil.BaseItem{ItemType: itemType, Material: material, DisplayName: composeDisplayName(itemType, material)}
}

// Suggest returns up to limit enchantment display names that are close to name.
func (c *Catalog) Suggest(name string, limit int) []string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" || limit <= 0 {
		return nil
	}

	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	maxDist := suggestLimit(len(needle))
	for _, id := range c.enchantOrder {
		display := c.enchantments[id].DisplayName
		lower := strings.ToLower(display)
		dist := levenshtein.ComputeDistance(needle, lower)
		if alt := levenshtein.ComputeDistance(needle, id); alt < dist {
			dist = alt
		}
		if strings.HasPrefix(lower, needle) || strings.HasPrefix(id, needle) {
			dist = 0
		}
		if dist > maxDist {
			continue
		}
		cands = append(cands, candidate{name: display, dist: dist})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].name < cands[j].name
		}
		return cands[i].dist < cands[j].dist
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}

	out := make([]string, 0, len(cands))
	for _, cand := range cands {
		out = append(out, cand.name)
	}
	return out
}

// suggestLimit scales the allowed edit distance with the length of the input.
func suggestLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

func baseKey(itemType, material string) string {
	return itemType + "|" + material
}

func composeDisplayName(itemType, material string) string {
	if material == "" {
		return anvil.FormatID(itemType)
	}
	return anvil.FormatID(material) + " " + anvil.FormatID(itemType)
}
