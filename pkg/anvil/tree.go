package anvil

import "encoding/json"

// CraftingTreeNode is a node of a crafting tree: either a *LeafNode (an item
// you start with) or a *CombineNode (one anvil operation).
type CraftingTreeNode interface {
	NodeID() string
	isCraftingTreeNode()
}

// LeafNode is an input item: an enchanted book or the base item.
type LeafNode struct {
	ID           string
	Item         string
	Enchantments []string
}

func (n *LeafNode) NodeID() string { return n.ID }

func (*LeafNode) isCraftingTreeNode() {}

// MarshalJSON encodes the leaf with a "type" discriminator.
func (n *LeafNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string   `json:"type"`
		ID           string   `json:"id"`
		Item         string   `json:"item,omitempty"`
		Enchantments []string `json:"enchantments,omitempty"`
	}{"leaf", n.ID, n.Item, n.Enchantments})
}

// CombineNode is one anvil operation. Left is the target, Right the sacrifice.
type CombineNode struct {
	ID           string
	Left         CraftingTreeNode
	Right        CraftingTreeNode
	LevelCost    int
	XPCost       int
	ResultingPWP int
	ResultLabel  string
	Enchantments []string
}

func (n *CombineNode) NodeID() string { return n.ID }

func (*CombineNode) isCraftingTreeNode() {}

// MarshalJSON encodes the combine node with a "type" discriminator.
func (n *CombineNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string           `json:"type"`
		ID           string           `json:"id"`
		Left         CraftingTreeNode `json:"left"`
		Right        CraftingTreeNode `json:"right"`
		LevelCost    int              `json:"level_cost"`
		XPCost       int              `json:"xp_cost"`
		ResultingPWP int              `json:"resulting_pwp"`
		ResultLabel  string           `json:"result_label"`
		Enchantments []string         `json:"enchantments"`
	}{"combine", n.ID, n.Left, n.Right, n.LevelCost, n.XPCost, n.ResultingPWP, n.ResultLabel, n.Enchantments})
}

// Label returns the display string of the item a node produces.
func Label(node CraftingTreeNode) string {
	switch n := node.(type) {
	case *LeafNode:
		return n.Item
	case *CombineNode:
		return n.ResultLabel
	}
	return ""
}

// Leaves returns the leaf nodes of a tree, left to right.
func Leaves(root CraftingTreeNode) []*LeafNode {
	var out []*LeafNode
	var walk func(CraftingTreeNode)
	walk = func(node CraftingTreeNode) {
		switch n := node.(type) {
		case *LeafNode:
			out = append(out, n)
		case *CombineNode:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(root)
	return out
}

// CombineSteps returns the combine nodes of a tree in the order they must be
// performed (children before parents).
func CombineSteps(root CraftingTreeNode) []*CombineNode {
	var out []*CombineNode
	var walk func(CraftingTreeNode)
	walk = func(node CraftingTreeNode) {
		n, ok := node.(*CombineNode)
		if !ok {
			return
		}
		walk(n.Left)
		walk(n.Right)
		out = append(out, n)
	}
	walk(root)
	return out
}
