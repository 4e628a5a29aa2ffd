// SPDX-License-Identifier: Apache-2.0

package lineage

import (
	"cmp"
	"slices"
	"strconv"
)

// compareEntries orders lineages by publisher, suite, number and part.
// Number and part compare numerically when both sides are numbers. The key
// join breaks any remaining tie so the order is total.
func compareEntries(a, b *Entry) int {
	if c := cmp.Compare(a.Publisher, b.Publisher); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Suite, b.Suite); c != 0 {
		return c
	}
	if c := compareNumeric(a.Number, b.Number); c != 0 {
		return c
	}
	if c := compareNumeric(a.Part, b.Part); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}

func compareNumeric(a, b string) int {
	an, aErr := strconv.ParseFloat(a, 64)
	bn, bErr := strconv.ParseFloat(b, 64)
	if aErr == nil && bErr == nil {
		return cmp.Compare(an, bn)
	}
	return cmp.Compare(a, b)
}

func sortedPublisherCounts(counts map[string]int) []PublisherCount {
	out := make([]PublisherCount, 0, len(counts))
	for p, n := range counts {
		out = append(out, PublisherCount{Publisher: p, Count: n})
	}
	slices.SortFunc(out, func(a, b PublisherCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Publisher, b.Publisher)
	})
	return out
}

// summarizeFlags groups flags by type across entries, which must already be
// in report order so the retained examples are stable.
func summarizeFlags(entries []*Entry, maxExamples int) FlagSummary {
	sum := FlagSummary{ByType: map[string]*FlagTypeSummary{}}
	for _, e := range entries {
		for _, f := range e.Flags {
			t, ok := sum.ByType[f.Type()]
			if !ok {
				t = &FlagTypeSummary{Examples: []FlagExample{}}
				sum.ByType[f.Type()] = t
			}
			t.Count++
			sum.TotalFlags++
			if len(t.Examples) < maxExamples {
				t.Examples = append(t.Examples, FlagExample{Lineage: e.Key, Flag: f.String()})
			}
		}
	}
	return sum
}
