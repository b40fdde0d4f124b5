package rules

import (
	"fmt"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// EnchantmentLookup resolves enchantment definitions by id.
type EnchantmentLookup interface {
	Enchantment(id string) (anvil.EnchantmentDefinition, bool)
}

// Check validates an enchantment spec for an item type. This is the
// authoring-time pass; the optimizer never calls it.
func (e *Engine) Check(itemType string, spec anvil.EnchantmentSpec, lookup EnchantmentLookup) []anvil.ValidationIssue {
	var issues []anvil.ValidationIssue

	seen := make(map[string]bool, len(spec))
	defs := make(map[string]anvil.EnchantmentDefinition, len(spec))

	for _, ench := range spec {
		if seen[ench.ID] {
			issues = append(issues, anvil.ValidationIssue{
				Code:        anvil.IssueDuplicate,
				Severity:    anvil.SeverityError,
				Enchantment: ench.ID,
				Message:     fmt.Sprintf("%s is listed more than once", ench.ID),
			})
			continue
		}
		seen[ench.ID] = true

		if ench.Level <= 0 {
			issues = append(issues, anvil.ValidationIssue{
				Code:        anvil.IssueInvalidLevel,
				Severity:    anvil.SeverityError,
				Enchantment: ench.ID,
				Message:     fmt.Sprintf("%s has level %d; levels must be positive", ench.ID, ench.Level),
			})
		}

		def, ok := lookup.Enchantment(ench.ID)
		if !ok {
			issues = append(issues, anvil.ValidationIssue{
				Code:        anvil.IssueUnknownEnchantment,
				Severity:    anvil.SeverityError,
				Enchantment: ench.ID,
				Message:     fmt.Sprintf("unknown enchantment %s", ench.ID),
			})
			continue
		}
		defs[ench.ID] = def

		if maxLevel := e.MaxLevel(ench.ID, def.MaxLevel); maxLevel > 0 && ench.Level > maxLevel {
			issues = append(issues, anvil.ValidationIssue{
				Code:        anvil.IssueAboveMaxLevel,
				Severity:    anvil.SeverityWarning,
				Enchantment: ench.ID,
				Message:     fmt.Sprintf("%s level %d exceeds max level %d", def.DisplayName, ench.Level, maxLevel),
			})
		}

		applicable := def.AppliesTo(itemType) || e.explicitlyAllows(ench.ID, itemType)
		if !applicable || !e.CanApplyTo(ench.ID, itemType) {
			issues = append(issues, anvil.ValidationIssue{
				Code:        anvil.IssueNotApplicable,
				Severity:    anvil.SeverityError,
				Enchantment: ench.ID,
				Message:     fmt.Sprintf("%s cannot be applied to %s", def.DisplayName, itemType),
			})
		}
	}

	// Pairwise conflicts, in spec order.
	for i := 0; i < len(spec); i++ {
		a := spec[i].ID
		for j := i + 1; j < len(spec); j++ {
			b := spec[j].ID
			if a == b {
				continue
			}
			// Catalog conflict sets are not always written symmetrically.
			base := defs[a].BaseConflicts
			if defs[b].ConflictsWith(a) {
				base = append(append([]string(nil), base...), a)
			}
			if e.HasConflict(a, b, itemType, base) {
				issues = append(issues, anvil.ValidationIssue{
					Code:        anvil.IssueConflict,
					Severity:    anvil.SeverityError,
					Enchantment: a,
					Other:       b,
					Message:     fmt.Sprintf("%s conflicts with %s on %s", a, b, itemType),
				})
			}
		}
	}

	return issues
}

// HasErrors reports whether any issue is error severity.
func HasErrors(issues []anvil.ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == anvil.SeverityError {
			return true
		}
	}
	return false
}
