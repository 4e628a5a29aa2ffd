// SPDX-License-Identifier: Apache-2.0

package citation

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// MaxOrphans caps the unresolved citations kept in a snapshot.
const MaxOrphans = 200

// Sighting is one citation as found in a citing document.
type Sighting struct {
	DocID  string `json:"docId"`
	Type   string `json:"type"`
	Cite   string `json:"cite"`
	Href   string `json:"href,omitempty"`
	RawRef string `json:"rawRef,omitempty"`
	Title  string `json:"title,omitempty"`
}

func (s Sighting) identity() string {
	return strings.Join([]string{
		s.DocID,
		s.Type,
		strings.TrimSpace(s.Cite),
		strings.TrimSpace(s.Href),
		strings.TrimSpace(s.RawRef),
		strings.TrimSpace(s.Title),
	}, "||")
}

// Provenance lists how a referenced id was reached.
type Provenance struct {
	MapSource  []string `json:"mapSource,omitempty"`
	MapDetails []string `json:"mapDetails,omitempty"`
}

// Resolution says whether a referenced id is itself in the snapshot.
type Resolution struct {
	SourcePresent bool   `json:"sourcePresent"`
	SourceDocID   string `json:"sourceDocId,omitempty"`
}

// RefEntry aggregates every sighting that resolved to one id.
type RefEntry struct {
	RefID       string      `json:"refId"`
	Provenance  Provenance  `json:"provenance"`
	Resolution  *Resolution `json:"resolution,omitempty"`
	RawVariants []Sighting  `json:"rawVariants,omitempty"`
}

// PresenceFunc reports the snapshot document a referenced id stands for.
type PresenceFunc func(refID string) (docID string, ok bool)

// IndexStats summarizes an Index.
type IndexStats struct {
	UniqueRefIDs   int `json:"uniqueRefIds"`
	TotalSightings int `json:"totalSightings"`
}

// IndexSnapshot is a deterministic copy of an Index.
type IndexSnapshot struct {
	Stats   IndexStats          `json:"stats"`
	Refs    map[string]RefEntry `json:"refs"`
	Orphans []Sighting          `json:"orphans"`
}

// Index accumulates resolved and unresolved citations across documents.
// It is safe for concurrent use.
type Index struct {
	mu        sync.Mutex
	refs      map[string]*refState
	orphans   []Sighting
	orphanSet map[string]bool
	sightings int
}

type refState struct {
	sources  []string
	details  []string
	variants []Sighting
	seen     map[string]bool
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{refs: map[string]*refState{}, orphanSet: map[string]bool{}}
}

// Observe resolves s with r and records the outcome.
func (x *Index) Observe(r *Resolver, s Sighting) (Result, bool) {
	res, ok := r.Resolve(s.Cite, s.Href)
	x.Record(s, res, ok)
	return res, ok
}

// Record adds one sighting. Unresolved sightings become orphans, the bad
// references a reviewer has to map by hand.
func (x *Index) Record(s Sighting, res Result, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.sightings++

	if !ok || res.RefID == "" {
		id := s.identity()
		if !x.orphanSet[id] {
			x.orphanSet[id] = true
			x.orphans = append(x.orphans, s)
		}
		return
	}

	st, exists := x.refs[res.RefID]
	if !exists {
		st = &refState{seen: map[string]bool{}}
		x.refs[res.RefID] = st
	}
	if res.MapSource != "" && !slices.Contains(st.sources, res.MapSource) {
		st.sources = append(st.sources, res.MapSource)
	}
	if res.MapDetail != "" && !slices.Contains(st.details, res.MapDetail) {
		st.details = append(st.details, res.MapDetail)
	}
	if id := s.identity(); !st.seen[id] {
		st.seen[id] = true
		st.variants = append(st.variants, s)
	}
}

// Orphans returns the unresolved sightings in the order first seen.
func (x *Index) Orphans() []Sighting {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.orphans)
}

// Snapshot returns a sorted copy of the index. Map sources are sorted,
// map details keep first-seen order, variants are ordered by citing
// document, type and cite text, and orphans are capped at MaxOrphans.
func (x *Index) Snapshot() IndexSnapshot {
	return x.SnapshotWithPresence(nil)
}

// SnapshotWithPresence is Snapshot with a Resolution attached to every
// entry. present may be nil, in which case no resolution is attached.
func (x *Index) SnapshotWithPresence(present PresenceFunc) IndexSnapshot {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := IndexSnapshot{
		Stats:   IndexStats{UniqueRefIDs: len(x.refs), TotalSightings: x.sightings},
		Refs:    make(map[string]RefEntry, len(x.refs)),
		Orphans: slices.Clone(x.orphans[:min(len(x.orphans), MaxOrphans)]),
	}
	if out.Orphans == nil {
		out.Orphans = []Sighting{}
	}
	for id, st := range x.refs {
		sources := slices.Clone(st.sources)
		slices.Sort(sources)
		variants := slices.Clone(st.variants)
		slices.SortStableFunc(variants, func(a, b Sighting) int {
			return cmp.Compare(variantKey(a), variantKey(b))
		})
		entry := RefEntry{
			RefID:       id,
			Provenance:  Provenance{MapSource: sources, MapDetails: slices.Clone(st.details)},
			RawVariants: variants,
		}
		if present != nil {
			docID, ok := present(id)
			entry.Resolution = &Resolution{SourcePresent: ok, SourceDocID: docID}
		}
		out.Refs[id] = entry
	}
	return out
}

func variantKey(s Sighting) string {
	return s.DocID + "||" + s.Type + "||" + strings.ToLower(s.Cite)
}
