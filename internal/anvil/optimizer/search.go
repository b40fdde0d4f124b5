package optimizer

import (
	"sort"

	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

// search explores book orders depth first in lexicographic index order.
// Branches are cut once they cannot strictly beat the best total, so the
// first minimal order found wins ties.
type search struct {
	costs  []int // enchantment cost of each book as a sacrifice
	final  int   // cost of the last operation onto the base item
	capped bool

	order []int
	used  []bool

	best      int
	bestOrder []int
}

// plan returns the cheapest book order. When capped is set, orders with any
// step above anvil.MaxStepCost are rejected and ok is false if none remain.
func (o *Optimizer) plan(books []*WorkItem, capped bool) ([]int, bool) {
	n := len(books)
	s := &search{
		costs:  make([]int, n),
		capped: capped,
		order:  make([]int, 0, n),
		used:   make([]bool, n),
		best:   anvil.UnboundedCost,
	}

	sum := 0
	for i, b := range books {
		s.costs[i] = o.enchantmentCost(b.Enchantments, false)
		sum = addCost(sum, s.costs[i])
	}
	s.final = o.finalStepCost(books)
	// Past this point the search is exponential; it only ever runs for the
	// handful of books whose final operation can be legal.
	if s.final > anvil.MaxStepCost {
		return nil, false
	}

	s.walk(0, sum)
	if s.bestOrder == nil {
		return nil, false
	}
	return s.bestOrder, true
}

// walk places the book at position depth. partial is the level cost of the
// merges so far and remaining the enchantment cost of unplaced books.
func (s *search) walk(partial, remaining int) {
	depth := len(s.order)
	n := len(s.costs)
	if depth == n {
		total := partial + s.final
		if total < s.best {
			s.best = total
			s.bestOrder = append([]int(nil), s.order...)
		}
		return
	}

	for i := 0; i < n; i++ {
		if s.used[i] {
			continue
		}

		step := 0
		if depth > 0 {
			// Position depth merges onto a running book with depth-1 prior operations.
			step = PWPCost(depth-1) + s.costs[i]
			if s.capped && step > anvil.MaxStepCost {
				continue
			}
		}
		left := remaining - s.costs[i]
		if depth > 0 && partial+step+s.lowerBound(depth+1, left) >= s.best {
			continue
		}

		s.used[i] = true
		s.order = append(s.order, i)
		s.walk(partial+step, left)
		s.order = s.order[:depth]
		s.used[i] = false
	}
}

// lowerBound is the cost still to pay once positions before next are placed.
// It is exact because every later merge charges its own book in full.
func (s *search) lowerBound(next, remaining int) int {
	bound := remaining + s.final
	for p := next; p < len(s.costs); p++ {
		bound += PWPCost(p - 1)
	}
	return bound
}

// finalStepCost is the cost of the last operation onto the base item, which is
// the same for every order: the merged book always has n-1 prior operations
// and carries every enchantment.
func (o *Optimizer) finalStepCost(books []*WorkItem) int {
	cost := PWPCost(len(books) - 1)
	for _, b := range books {
		cost = addCost(cost, o.enchantmentCost(b.Enchantments, false))
	}
	return cost
}

// directOrder merges the most expensive books first, ties in spec order. It
// stands in for the search when no order can be legal.
func (o *Optimizer) directOrder(books []*WorkItem) []int {
	costs := make([]int, len(books))
	order := make([]int, len(books))
	for i, b := range books {
		costs[i] = o.enchantmentCost(b.Enchantments, false)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return costs[order[a]] > costs[order[b]]
	})
	return order
}
