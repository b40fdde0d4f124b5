// Package optimizer finds the cheapest order of anvil operations for a set of
// enchantments.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/rsned/anvil-crafting-server/internal/anvil/rules"
	"github.com/rsned/anvil-crafting-server/internal/anvil/xp"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// EnchantedBookLabel is the result label of every intermediate book merge.
const EnchantedBookLabel = "Enchanted Book"

var (
	// ErrNoValidOrdering is returned when every order has a step above the level cap.
	ErrNoValidOrdering = errors.New("no crafting order stays within the level cap")
	// ErrInvalidLevel is returned for enchantment levels below 1.
	ErrInvalidLevel = errors.New("enchantment level must be positive")
)

// Lookup resolves enchantment definitions by id.
type Lookup interface {
	Enchantment(id string) (anvil.EnchantmentDefinition, bool)
}

// Optimizer computes crafting trees. It holds no per-call state and is safe
// for concurrent use.
type Optimizer struct {
	catalog Lookup
	rules   *rules.Engine
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithRules applies cost modifier rules to book multipliers and max level
// overrides to display names. Without it the optimizer ignores the rule set.
func WithRules(r *rules.Engine) Option {
	return func(o *Optimizer) {
		o.rules = r
	}
}

// New creates an Optimizer backed by the given catalog.
func New(catalog Lookup, opts ...Option) *Optimizer {
	o := &Optimizer{catalog: catalog}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WorkItem is an item on the anvil: a book or the base item, with the number
// of anvil operations its lineage has already been through.
type WorkItem struct {
	ID           string
	Enchantments []anvil.EnchantmentLevel
	PWP          int
	IsBaseItem   bool
	DisplayName  string
}

// PWPCost is the prior work penalty for an item used in n previous anvil
// operations. It saturates at anvil.UnboundedCost.
func PWPCost(n int) int {
	switch {
	case n <= 0:
		return 0
	case n >= 31:
		return anvil.UnboundedCost
	}
	return 1<<n - 1
}

// CombineCost is the level cost of putting sacrifice onto target. Only the
// sacrifice's enchantments are charged. Costs saturate at anvil.UnboundedCost.
func (o *Optimizer) CombineCost(target, sacrifice *WorkItem) int {
	cost := addCost(PWPCost(target.PWP), PWPCost(sacrifice.PWP))
	return addCost(cost, o.enchantmentCost(sacrifice.Enchantments, sacrifice.IsBaseItem))
}

// enchantmentCost sums level × multiplier over enchantments carried by a sacrifice.
func (o *Optimizer) enchantmentCost(enchantments []anvil.EnchantmentLevel, onItem bool) int {
	total := 0
	for _, e := range enchantments {
		m := o.multiplier(e.ID, onItem)
		if m > 0 && e.Level > anvil.UnboundedCost/m {
			return anvil.UnboundedCost
		}
		total = addCost(total, e.Level*m)
	}
	return total
}

// addCost adds two non-negative level costs, saturating at anvil.UnboundedCost.
func addCost(a, b int) int {
	if a >= anvil.UnboundedCost-b {
		return anvil.UnboundedCost
	}
	return a + b
}

// multiplier returns the per-level cost of an enchantment. Unknown ids cost nothing.
func (o *Optimizer) multiplier(id string, onItem bool) int {
	def, ok := o.catalog.Enchantment(id)
	if !ok {
		return 0
	}
	if onItem {
		return def.ItemMultiplier
	}
	m := def.BookMultiplier
	if o.rules == nil {
		return m
	}
	mod := o.rules.CostModifier(id)
	if mod == anvil.IdentityModifier {
		return m
	}
	adjusted := int(math.Round((float64(m) + mod.BookMultiplierAdd) * mod.BookMultiplierMult))
	if adjusted < 0 {
		return 0
	}
	return adjusted
}

// label formats one enchantment for display, e.g. "Sharpness V".
func (o *Optimizer) label(e anvil.EnchantmentLevel) string {
	def, ok := o.catalog.Enchantment(e.ID)
	if !ok {
		return anvil.EnchantmentLabel(anvil.FormatID(e.ID), e.Level, 0)
	}
	maxLevel := def.MaxLevel
	if o.rules != nil {
		maxLevel = o.rules.MaxLevel(e.ID, maxLevel)
	}
	return anvil.EnchantmentLabel(def.DisplayName, e.Level, maxLevel)
}

func (o *Optimizer) labels(enchantments []anvil.EnchantmentLevel) []string {
	out := make([]string, 0, len(enchantments))
	for _, e := range enchantments {
		out = append(out, o.label(e))
	}
	return out
}

// books materializes one fresh book per requested enchantment.
func (o *Optimizer) books(spec anvil.EnchantmentSpec) ([]*WorkItem, error) {
	out := make([]*WorkItem, 0, len(spec))
	for i, e := range spec {
		if e.Level < 1 {
			return nil, fmt.Errorf("%s level %d: %w", e.ID, e.Level, ErrInvalidLevel)
		}
		out = append(out, &WorkItem{
			ID:           fmt.Sprintf("book-%d", i),
			Enchantments: []anvil.EnchantmentLevel{e},
			DisplayName:  o.label(e),
		})
	}
	return out, nil
}

// ComputeOptimalTree returns the cheapest crafting tree for the enchantments,
// or ErrNoValidOrdering when every order has a step above the level cap.
func (o *Optimizer) ComputeOptimalTree(spec anvil.EnchantmentSpec, baseItemName string) (anvil.CraftingTreeNode, error) {
	books, err := o.books(spec)
	if err != nil {
		return nil, err
	}
	ids := &idGen{}
	if len(books) == 0 {
		return &anvil.LeafNode{ID: ids.next(), Item: baseItemName}, nil
	}

	if o.finalStepCost(books) > anvil.MaxStepCost {
		return nil, ErrNoValidOrdering
	}
	order, ok := o.plan(books, true)
	if !ok {
		return nil, ErrNoValidOrdering
	}
	return o.buildTree(books, order, baseItemName, ids), nil
}

// ComputeRecipe optimizes a recipe and totals its costs. A recipe with no
// legal order is not an error: the result is marked invalid and its total
// level cost is anvil.UnboundedCost. The tree then shows the cheapest order
// ignoring the cap, or, when the last operation alone is over the cap, the
// books merged most expensive first. XP totals of an invalid recipe that
// cannot be represented are reported as anvil.UnboundedCost.
func (o *Optimizer) ComputeRecipe(spec anvil.EnchantmentSpec, base anvil.BaseItem) (anvil.RecipeResult, error) {
	books, err := o.books(spec)
	if err != nil {
		return anvil.RecipeResult{}, err
	}
	ids := &idGen{}
	if len(books) == 0 {
		return anvil.RecipeResult{
			Tree:      &anvil.LeafNode{ID: ids.next(), Item: base.DisplayName},
			Valid:     true,
			StepCosts: []int{},
		}, nil
	}

	var order []int
	valid := false
	if o.finalStepCost(books) > anvil.MaxStepCost {
		order = o.directOrder(books)
	} else {
		var ok bool
		order, valid = o.plan(books, true)
		if !valid {
			order, ok = o.plan(books, false)
			if !ok {
				order = o.directOrder(books)
			}
		}
	}
	tree := o.buildTree(books, order, base.DisplayName, ids)

	steps := anvil.CombineSteps(tree)
	stepCosts := make([]int, 0, len(steps))
	total := 0
	for _, s := range steps {
		stepCosts = append(stepCosts, s.LevelCost)
		total += s.LevelCost
	}
	if !valid {
		total = anvil.UnboundedCost
	}

	incremental, err := xp.IncrementalXP(stepCosts)
	if err != nil {
		if valid || !errors.Is(err, xp.ErrOutOfRange) {
			return anvil.RecipeResult{}, fmt.Errorf("totaling xp: %w", err)
		}
		incremental = anvil.UnboundedCost
	}
	bulk, err := xp.BulkXP(stepCosts)
	if err != nil {
		if valid || !errors.Is(err, xp.ErrOutOfRange) {
			return anvil.RecipeResult{}, fmt.Errorf("totaling bulk xp: %w", err)
		}
		bulk = anvil.UnboundedCost
	}

	return anvil.RecipeResult{
		Tree:            tree,
		Valid:           valid,
		TotalLevelCost:  total,
		TotalXPCost:     incremental,
		TotalXPCostBulk: bulk,
		StepCount:       len(books),
		StepCosts:       stepCosts,
	}, nil
}

// IsRecipeValid reports whether the recipe has an order within the level cap.
func (o *Optimizer) IsRecipeValid(spec anvil.EnchantmentSpec, base anvil.BaseItem) bool {
	result, err := o.ComputeRecipe(spec, base)
	return err == nil && result.Valid
}

// buildTree turns a book order into a crafting tree: a linear merge of the
// books followed by one final operation onto the base item.
func (o *Optimizer) buildTree(books []*WorkItem, order []int, baseItemName string, ids *idGen) anvil.CraftingTreeNode {
	first := books[order[0]]
	running := &WorkItem{
		ID:           first.ID,
		Enchantments: first.Enchantments,
		PWP:          first.PWP,
		DisplayName:  first.DisplayName,
	}
	var runningNode anvil.CraftingTreeNode = o.bookLeaf(first, ids)

	for _, idx := range order[1:] {
		sacrifice := books[idx]
		sacrificeNode := o.bookLeaf(sacrifice, ids)
		merged := o.merge(running, sacrifice, EnchantedBookLabel)
		runningNode = o.combineNode(ids, running, sacrifice, merged, runningNode, sacrificeNode)
		running = merged
	}

	base := &WorkItem{ID: "base", IsBaseItem: true, DisplayName: baseItemName}
	baseNode := &anvil.LeafNode{ID: ids.next(), Item: baseItemName}
	result := o.merge(base, running, baseItemName)
	return o.combineNode(ids, base, running, result, baseNode, runningNode)
}

func (o *Optimizer) bookLeaf(book *WorkItem, ids *idGen) *anvil.LeafNode {
	return &anvil.LeafNode{
		ID:           ids.next(),
		Item:         book.DisplayName + " Book",
		Enchantments: o.labels(book.Enchantments),
	}
}

// merge produces the item that comes off the anvil.
func (o *Optimizer) merge(target, sacrifice *WorkItem, label string) *WorkItem {
	enchantments := make([]anvil.EnchantmentLevel, 0, len(target.Enchantments)+len(sacrifice.Enchantments))
	enchantments = append(enchantments, target.Enchantments...)
	enchantments = append(enchantments, sacrifice.Enchantments...)
	return &WorkItem{
		ID:           target.ID,
		Enchantments: enchantments,
		PWP:          max(target.PWP, sacrifice.PWP) + 1,
		IsBaseItem:   target.IsBaseItem,
		DisplayName:  label,
	}
}

func (o *Optimizer) combineNode(ids *idGen, target, sacrifice, result *WorkItem, left, right anvil.CraftingTreeNode) *anvil.CombineNode {
	cost := o.CombineCost(target, sacrifice)
	xpCost, err := xp.LevelToXP(cost)
	if err != nil {
		xpCost = anvil.UnboundedCost
	}
	return &anvil.CombineNode{
		ID:           ids.next(),
		Left:         left,
		Right:        right,
		LevelCost:    cost,
		XPCost:       xpCost,
		ResultingPWP: result.PWP,
		ResultLabel:  result.DisplayName,
		Enchantments: o.labels(result.Enchantments),
	}
}

// idGen hands out node ids for a single tree.
type idGen struct {
	n int
}

func (g *idGen) next() string {
	g.n++
	return fmt.Sprintf("node-%d", g.n)
}
