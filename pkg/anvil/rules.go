package anvil

import "fmt"

// RuleKind names a rule variant in its encoded form.
type RuleKind string

const (
	RuleConditionalConflict RuleKind = "conditional_conflict"
	RuleMaxLevelOverride    RuleKind = "max_level_override"
	RuleCostModifier        RuleKind = "cost_modifier"
	RuleItemRestriction     RuleKind = "item_restriction"
)

// Rule is one of *ConditionalConflictRule, *MaxLevelOverrideRule,
// *CostModifierRule or *ItemRestrictionRule.
type Rule interface {
	RuleID() string
	IsDisabled() bool
	Kind() RuleKind
	isRule()
}

// RuleCondition restricts a rule to a set of item types. An empty set matches nothing.
type RuleCondition struct {
	ItemTypes []string `json:"item_types"`
}

// Matches reports whether the condition lists itemType.
func (c RuleCondition) Matches(itemType string) bool {
	for _, t := range c.ItemTypes {
		if t == itemType {
			return true
		}
	}
	return false
}

// ConditionalConflictRule makes two enchantments mutually exclusive on some item types.
type ConditionalConflictRule struct {
	ID           string
	Disabled     bool
	Enchantments [2]string
	Condition    RuleCondition
}

// MaxLevelOverrideRule replaces the catalog max level of an enchantment.
type MaxLevelOverrideRule struct {
	ID          string
	Disabled    bool
	Enchantment string
	MaxLevel    int
}

// CostModifier adjusts a book multiplier: (book + BookMultiplierAdd) * BookMultiplierMult.
type CostModifier struct {
	BookMultiplierAdd  float64 `json:"book_multiplier_add"`
	BookMultiplierMult float64 `json:"book_multiplier_mult"`
}

// IdentityModifier leaves multipliers unchanged.
var IdentityModifier = CostModifier{BookMultiplierAdd: 0, BookMultiplierMult: 1}

// CostModifierRule adjusts the book multiplier of a set of enchantments.
type CostModifierRule struct {
	ID           string
	Disabled     bool
	Enchantments []string
	Modifier     CostModifier
}

// ItemRestrictionRule limits the item types an enchantment can be applied to.
// Exactly one of Allow and Block is expected to be set.
type ItemRestrictionRule struct {
	ID          string
	Disabled    bool
	Enchantment string
	Allow       []string
	Block       []string
}

func (r *ConditionalConflictRule) RuleID() string   { return r.ID }
func (r *ConditionalConflictRule) IsDisabled() bool { return r.Disabled }
func (r *ConditionalConflictRule) Kind() RuleKind   { return RuleConditionalConflict }
func (*ConditionalConflictRule) isRule()            {}

func (r *MaxLevelOverrideRule) RuleID() string   { return r.ID }
func (r *MaxLevelOverrideRule) IsDisabled() bool { return r.Disabled }
func (r *MaxLevelOverrideRule) Kind() RuleKind   { return RuleMaxLevelOverride }
func (*MaxLevelOverrideRule) isRule()            {}

func (r *CostModifierRule) RuleID() string   { return r.ID }
func (r *CostModifierRule) IsDisabled() bool { return r.Disabled }
func (r *CostModifierRule) Kind() RuleKind   { return RuleCostModifier }
func (*CostModifierRule) isRule()            {}

func (r *ItemRestrictionRule) RuleID() string   { return r.ID }
func (r *ItemRestrictionRule) IsDisabled() bool { return r.Disabled }
func (r *ItemRestrictionRule) Kind() RuleKind   { return RuleItemRestriction }
func (*ItemRestrictionRule) isRule()            {}

// RuleEnvelope is the flat encoded form of a rule, used for storage and rule files.
type RuleEnvelope struct {
	Type         RuleKind `json:"type" yaml:"type"`
	ID           string   `json:"id" yaml:"id"`
	Disabled     bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Enchantment  string   `json:"enchantment,omitempty" yaml:"enchantment,omitempty"`
	Enchantments []string `json:"enchantments,omitempty" yaml:"enchantments,omitempty"`
	ItemTypes    []string `json:"item_types,omitempty" yaml:"item_types,omitempty"`
	MaxLevel     int      `json:"max_level,omitempty" yaml:"max_level,omitempty"`
	Add          *float64 `json:"book_multiplier_add,omitempty" yaml:"book_multiplier_add,omitempty"`
	Mult         *float64 `json:"book_multiplier_mult,omitempty" yaml:"book_multiplier_mult,omitempty"`
	Allow        []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Block        []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// Rule converts the envelope into its typed variant.
func (e RuleEnvelope) Rule() (Rule, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("rule has no id")
	}
	switch e.Type {
	case RuleConditionalConflict:
		if len(e.Enchantments) != 2 {
			return nil, fmt.Errorf("rule %s: conditional conflict needs exactly 2 enchantments, got %d", e.ID, len(e.Enchantments))
		}
		return &ConditionalConflictRule{
			ID:           e.ID,
			Disabled:     e.Disabled,
			Enchantments: [2]string{e.Enchantments[0], e.Enchantments[1]},
			Condition:    RuleCondition{ItemTypes: e.ItemTypes},
		}, nil

	case RuleMaxLevelOverride:
		if e.Enchantment == "" {
			return nil, fmt.Errorf("rule %s: max level override needs an enchantment", e.ID)
		}
		return &MaxLevelOverrideRule{
			ID:          e.ID,
			Disabled:    e.Disabled,
			Enchantment: e.Enchantment,
			MaxLevel:    e.MaxLevel,
		}, nil

	case RuleCostModifier:
		mod := IdentityModifier
		if e.Add != nil {
			mod.BookMultiplierAdd = *e.Add
		}
		if e.Mult != nil {
			mod.BookMultiplierMult = *e.Mult
		}
		return &CostModifierRule{
			ID:           e.ID,
			Disabled:     e.Disabled,
			Enchantments: e.Enchantments,
			Modifier:     mod,
		}, nil

	case RuleItemRestriction:
		if e.Enchantment == "" {
			return nil, fmt.Errorf("rule %s: item restriction needs an enchantment", e.ID)
		}
		return &ItemRestrictionRule{
			ID:          e.ID,
			Disabled:    e.Disabled,
			Enchantment: e.Enchantment,
			Allow:       e.Allow,
			Block:       e.Block,
		}, nil
	}
	return nil, fmt.Errorf("rule %s: unknown rule type %q", e.ID, e.Type)
}

// EnvelopeFor converts a typed rule into its encoded form.
func EnvelopeFor(r Rule) RuleEnvelope {
	env := RuleEnvelope{Type: r.Kind(), ID: r.RuleID(), Disabled: r.IsDisabled()}
	switch v := r.(type) {
	case *ConditionalConflictRule:
		env.Enchantments = []string{v.Enchantments[0], v.Enchantments[1]}
		env.ItemTypes = v.Condition.ItemTypes
	case *MaxLevelOverrideRule:
		env.Enchantment = v.Enchantment
		env.MaxLevel = v.MaxLevel
	case *CostModifierRule:
		add, mult := v.Modifier.BookMultiplierAdd, v.Modifier.BookMultiplierMult
		env.Enchantments = v.Enchantments
		env.Add = &add
		env.Mult = &mult
	case *ItemRestrictionRule:
		env.Enchantment = v.Enchantment
		env.Allow = v.Allow
		env.Block = v.Block
	}
	return env
}
