// SPDX-License-Identifier: Apache-2.0

package references

import (
	"github.com/mediastandards/lineage/internal/citation"
)

// MapDetailReplay is the provenance detail of ids replayed from a snapshot.
const MapDetailReplay = "from-snapshot"

// Tally counts how the references of one run were recorded.
type Tally struct {
	Resolved   int `json:"resolved"`
	Replayed   int `json:"replayed"`
	Unresolved int `json:"unresolved"`
}

// Recorder resolves references and adds them to an index.
type Recorder struct {
	resolver *citation.Resolver
	index    *citation.Index
}

// NewRecorder creates a Recorder writing to index.
func NewRecorder(resolver *citation.Resolver, index *citation.Index) *Recorder {
	return &Recorder{resolver: resolver, index: index}
}

// Index returns the index the recorder writes to.
func (r *Recorder) Index() *citation.Index {
	return r.index
}

// Record adds refs to the index. References that already carry an id are
// replayed as is; the rest go through the resolver, and the ones it cannot
// resolve are kept as orphans.
func (r *Recorder) Record(refs []Reference) Tally {
	var t Tally
	for _, ref := range refs {
		if ref.RefID != "" {
			r.index.Record(ref.Sighting, citation.Result{
				RefID:     ref.RefID,
				MapSource: citation.SourceReplay,
				MapDetail: MapDetailReplay,
			}, true)
			t.Replayed++
			continue
		}
		if _, ok := r.index.Observe(r.resolver, ref.Sighting); ok {
			t.Resolved++
		} else {
			t.Unresolved++
		}
	}
	return t
}
