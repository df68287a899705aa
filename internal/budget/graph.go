package budget

import (
	"fmt"
	"sort"
)

// Graph is the category configuration snapshot with overflow pointers
// resolved into an adjacency lookup. It holds no ledger state; traversal is
// pure and bounded, so a misconfigured cycle can never loop forever.
type Graph struct {
	byID  map[string]Category
	order []string
}

// NewGraph validates the category set and builds a graph. Names must be
// unique and there must be exactly one terminal category; dangling overflow
// targets are tolerated here and surface as NoTerminalError on traversal.
func NewGraph(cats []Category) (*Graph, error) {
	byID := make(map[string]Category, len(cats))
	names := make(map[string]string, len(cats))
	var terminals []string

	for _, c := range cats {
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", c.ID)
		}
		if prev, dup := names[c.Name]; dup {
			return nil, fmt.Errorf("duplicate category name %q (ids %s, %s)", c.Name, prev, c.ID)
		}
		byID[c.ID] = c
		names[c.Name] = c.ID
		if c.Terminal() {
			terminals = append(terminals, c.ID)
		}
	}

	switch len(terminals) {
	case 0:
		if len(cats) > 0 {
			return nil, &NoTerminalError{From: cats[0].ID}
		}
	case 1:
	default:
		sort.Strings(terminals)
		return nil, &TerminalConflictError{IDs: terminals}
	}

	order := make([]string, 0, len(cats))
	for _, c := range cats {
		order = append(order, c.ID)
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := byID[order[i]], byID[order[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Name < b.Name
	})

	return &Graph{byID: byID, order: order}, nil
}

// Category looks up a category by id.
func (g *Graph) Category(id string) (Category, bool) {
	c, ok := g.byID[id]
	return c, ok
}

// CategoryByName looks up a category by its unique name.
func (g *Graph) CategoryByName(name string) (Category, bool) {
	for _, id := range g.order {
		if g.byID[id].Name == name {
			return g.byID[id], true
		}
	}
	return Category{}, false
}

// Categories returns all categories in display order.
func (g *Graph) Categories() []Category {
	out := make([]Category, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.byID[id])
	}
	return out
}

// Terminal returns the single terminal category. NewGraph guarantees it
// exists for non-empty graphs.
func (g *Graph) Terminal() (Category, error) {
	for _, c := range g.byID {
		if c.Terminal() {
			return c, nil
		}
	}
	return Category{}, &NoTerminalError{}
}

// NonTerminalIDs returns the ids of every category that is not the
// terminal absorber, in display order. The rollover sweep runs over these.
func (g *Graph) NonTerminalIDs() []string {
	out := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if !g.byID[id].Terminal() {
			out = append(out, id)
		}
	}
	return out
}

// ChainFrom returns the ordered overflow chain starting at the given
// category, ending at the terminal one. Traversal is bounded by the
// category count: exceeding it means a revisit, reported as CycleError.
func (g *Graph) ChainFrom(categoryID string) ([]string, error) {
	cur, ok := g.byID[categoryID]
	if !ok {
		return nil, &UnknownCategoryError{ID: categoryID}
	}

	chain := make([]string, 0, len(g.byID))
	seen := make(map[string]bool, len(g.byID))
	for {
		if seen[cur.ID] {
			return nil, &CycleError{Chain: append(chain, cur.ID)}
		}
		seen[cur.ID] = true
		chain = append(chain, cur.ID)

		if cur.Terminal() {
			return chain, nil
		}
		next, ok := g.byID[*cur.OverflowToID]
		if !ok {
			return nil, &NoTerminalError{From: categoryID}
		}
		cur = next
	}
}
