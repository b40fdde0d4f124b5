// Package rules answers point queries about enchantment conflicts, level caps,
// cost modifiers and item restrictions.
package rules

import (
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// Engine holds the enabled rules, split by variant.
type Engine struct {
	rules        []anvil.Rule
	conflicts    []*anvil.ConditionalConflictRule
	maxLevels    []*anvil.MaxLevelOverrideRule
	modifiers    []*anvil.CostModifierRule
	restrictions []*anvil.ItemRestrictionRule
}

// New creates an Engine. Disabled rules are dropped here and never consulted.
func New(rules []anvil.Rule) *Engine {
	e := &Engine{}
	for _, r := range rules {
		if r == nil || r.IsDisabled() {
			continue
		}
		switch v := r.(type) {
		case *anvil.ConditionalConflictRule:
			e.conflicts = append(e.conflicts, v)
		case *anvil.MaxLevelOverrideRule:
			e.maxLevels = append(e.maxLevels, v)
		case *anvil.CostModifierRule:
			e.modifiers = append(e.modifiers, v)
		case *anvil.ItemRestrictionRule:
			e.restrictions = append(e.restrictions, v)
		default:
			continue
		}
		e.rules = append(e.rules, r)
	}
	return e
}

// RuleCount returns the number of enabled rules.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

// Rules returns the enabled rules in construction order.
func (e *Engine) Rules() []anvil.Rule {
	out := make([]anvil.Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// HasConflict reports whether enchantments a and b are mutually exclusive on
// itemType. baseConflicts is the catalog conflict set of either enchantment.
// The result does not depend on the order of a and b.
func (e *Engine) HasConflict(a, b, itemType string, baseConflicts []string) bool {
	for _, c := range baseConflicts {
		if c == a || c == b {
			return true
		}
	}
	for _, r := range e.conflicts {
		pair := r.Enchantments
		if !((pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a)) {
			continue
		}
		if r.Condition.Matches(itemType) {
			return true
		}
	}
	return false
}

// MaxLevel returns the first override for id, or baseMax when none applies.
func (e *Engine) MaxLevel(id string, baseMax int) int {
	for _, r := range e.maxLevels {
		if r.Enchantment == id {
			return r.MaxLevel
		}
	}
	return baseMax
}

// CostModifier folds every modifier rule naming id: adds are summed and
// multipliers are multiplied.
func (e *Engine) CostModifier(id string) anvil.CostModifier {
	mod := anvil.IdentityModifier
	for _, r := range e.modifiers {
		if !contains(r.Enchantments, id) {
			continue
		}
		mod.BookMultiplierAdd += r.Modifier.BookMultiplierAdd
		mod.BookMultiplierMult *= r.Modifier.BookMultiplierMult
	}
	return mod
}

// CanApplyTo reports whether any restriction rule forbids id on itemType.
func (e *Engine) CanApplyTo(id, itemType string) bool {
	for _, r := range e.restrictions {
		if r.Enchantment != id {
			continue
		}
		if len(r.Allow) > 0 && !contains(r.Allow, itemType) {
			return false
		}
		if contains(r.Block, itemType) {
			return false
		}
	}
	return true
}

// explicitlyAllows reports whether an allow-list rule names itemType for id.
func (e *Engine) explicitlyAllows(id, itemType string) bool {
	for _, r := range e.restrictions {
		if r.Enchantment == id && contains(r.Allow, itemType) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
