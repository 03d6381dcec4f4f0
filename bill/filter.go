package bill

// Filter prunes every subtree whose quantities are all zero. A node survives
// iff its own quantity is positive or at least one descendant's is; a kept
// parent still loses its zero-only branches. Post-order, single pass,
// idempotent. Input nodes are not mutated: kept internal nodes are shallow
// copies carrying the filtered child list.
func Filter(forest []*LineItem) []*LineItem {
	out := make([]*LineItem, 0, len(forest))
	for _, it := range forest {
		if kept := filterItem(it); kept != nil {
			out = append(out, kept)
		}
	}
	return out
}

func filterItem(it *LineItem) *LineItem {
	kept := make([]*LineItem, 0, len(it.Children))
	for _, c := range it.Children {
		if k := filterItem(c); k != nil {
			kept = append(kept, k)
		}
	}
	if it.Quantity.Sign() <= 0 && len(kept) == 0 {
		return nil
	}
	cp := *it
	cp.Children = kept
	return &cp
}

// FilterStrict is Filter preceded by the negative-quantity invariant check.
// Ingestion rejects negative quantities; a negative reaching this point is a
// data corruption and fails the bill rather than being clamped.
func FilterStrict(forest []*LineItem) ([]*LineItem, error) {
	var bad *LineItem
	Walk(forest, func(it *LineItem, _ int) {
		if bad == nil && it.Quantity.Sign() < 0 {
			bad = it
		}
	})
	if bad != nil {
		return nil, &InvariantError{ID: bad.ID, Reason: "negative quantity"}
	}
	return Filter(forest), nil
}
