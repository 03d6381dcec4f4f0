// Package bill models a hierarchical bill of quantities: line items keyed by
// dotted ids ("2.1.2"), forests built once from flat rows, and the inclusion
// filter that decides which rows are worth rendering.
package bill

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one node of a bill-of-quantities tree. Children are owned
// exclusively by their parent; Amount is always derived, never stored.
type LineItem struct {
	ID          string
	Description string
	Unit        string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Children    []*LineItem
}

// Amount returns Quantity × Rate for this item alone (children excluded).
func (it *LineItem) Amount() decimal.Decimal {
	return it.Quantity.Mul(it.Rate)
}

// ParentID truncates the trailing dotted segment; "" for top-level ids.
func ParentID(id string) string {
	i := strings.LastIndex(id, ".")
	if i < 0 {
		return ""
	}
	return id[:i]
}

// InvariantError reports a row that violates a bill invariant, such as a
// negative quantity reaching the filter.
type InvariantError struct {
	ID     string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("bill invariant violated at item %q: %s", e.ID, e.Reason)
}

// Row is a flat input row as delivered by the ingestion layer.
type Row struct {
	ID          string
	Description string
	Unit        string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
}

// BuildForest materializes the tree implied by dotted ids into explicit
// parent/child links. The index is built in a single pass; traversals never
// re-split id strings afterwards. Sibling order follows input order. A row
// whose parent id is absent from the input becomes a root (partial extracts
// are common in practice).
func BuildForest(rows []Row) []*LineItem {
	nodes := make(map[string]*LineItem, len(rows))
	order := make([]*LineItem, 0, len(rows))
	for _, r := range rows {
		n := &LineItem{
			ID:          r.ID,
			Description: r.Description,
			Unit:        r.Unit,
			Quantity:    r.Quantity,
			Rate:        r.Rate,
		}
		nodes[n.ID] = n
		order = append(order, n)
	}

	var roots []*LineItem
	for _, n := range order {
		if p, ok := nodes[ParentID(n.ID)]; ok && p != n {
			p.Children = append(p.Children, n)
		} else {
			roots = append(roots, n)
		}
	}
	return roots
}

// Index maps every id in the forest to its node. Used for rate comparison
// between the work-order and billed trees.
func Index(forest []*LineItem) map[string]*LineItem {
	idx := make(map[string]*LineItem)
	var walk func(items []*LineItem)
	walk = func(items []*LineItem) {
		for _, it := range items {
			idx[it.ID] = it
			walk(it.Children)
		}
	}
	walk(forest)
	return idx
}

// Walk visits every node of the forest in depth-first order.
func Walk(forest []*LineItem, fn func(it *LineItem, level int)) {
	var walk func(items []*LineItem, level int)
	walk = func(items []*LineItem, level int) {
		for _, it := range items {
			fn(it, level)
			walk(it.Children, level+1)
		}
	}
	walk(forest, 0)
}
