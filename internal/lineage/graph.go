// SPDX-License-Identifier: Apache-2.0

package lineage

// Heads returns the members that have no supersededBy edge landing on
// another member of the same lineage. With baseOnly set, only base members
// are considered, both as candidates and as edge targets. Edges leaving the
// lineage are ignored. Input order is preserved.
func Heads(members []Member, baseOnly bool) []Member {
	inLineage := make(map[string]bool, len(members))
	for _, m := range members {
		if baseOnly && !m.IsBase {
			continue
		}
		inLineage[m.DocID] = true
	}

	var heads []Member
	for _, m := range members {
		if baseOnly && !m.IsBase {
			continue
		}
		superseded := false
		for _, tgt := range m.SupersededBy {
			if inLineage[tgt] {
				superseded = true
				break
			}
		}
		if !superseded {
			heads = append(heads, m)
		}
	}
	return heads
}

// pickNewest returns the member with the greatest date key. Ties go to the
// earliest member in slice order.
func pickNewest(members []Member) (Member, bool) {
	if len(members) == 0 {
		return Member{}, false
	}
	best := members[0]
	for _, m := range members[1:] {
		if m.DateKey > best.DateKey {
			best = m
		}
	}
	return best, true
}

// resolveLatest applies the trust order: explicit latest flags, then graph
// heads, then plain recency.
func resolveLatest(members, flagged, heads []Member) (Member, bool) {
	if len(flagged) > 0 {
		return pickNewest(flagged)
	}
	if len(heads) > 0 {
		return pickNewest(heads)
	}
	return pickNewest(members)
}

func filterMembers(members []Member, keep func(Member) bool) []Member {
	var out []Member
	for _, m := range members {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
