// SPDX-License-Identifier: Apache-2.0

package lineage

import (
	"strings"

	"github.com/mediastandards/lineage/internal/document"
	"github.com/mediastandards/lineage/internal/keying"
)

// Annotation is the per-document view of a report. DocBase and
// DocBaseLabel are only set on the lineage's latest document.
type Annotation struct {
	DocID        string `json:"docId"`
	LineageKey   string `json:"lineageKey"`
	LatestAnyID  string `json:"latestAnyId,omitempty"`
	LatestBaseID string `json:"latestBaseId,omitempty"`
	IsLatestAny  bool   `json:"isLatestAny"`
	IsLatestBase bool   `json:"isLatestBase"`
	DocBase      string `json:"docBase,omitempty"`
	DocBaseLabel string `json:"docBaseLabel,omitempty"`
}

// LabelFromKey renders a key join for people: "SMPTE|ST|2067|2" becomes
// "SMPTE ST 2067-2".
func LabelFromKey(join string) string {
	fields := strings.SplitN(join, "|", 4)
	for len(fields) < 4 {
		fields = append(fields, "")
	}
	pub, suite, number, part := fields[0], fields[1], fields[2], fields[3]

	parts := make([]string, 0, 3)
	if pub != "" {
		parts = append(parts, pub)
	}
	if suite != "" {
		parts = append(parts, suite)
	}
	if number != "" {
		if part != "" {
			number += "-" + part
		}
		parts = append(parts, number)
	}
	return strings.Join(parts, " ")
}

// LineageOf returns the key of the lineage holding docID. Ids rewritten by
// the alias pass are found under both spellings.
func (r *Report) LineageOf(docID string) (string, bool) {
	if r.byDoc == nil {
		r.byDoc = indexMembers(r)
	}
	key, ok := r.byDoc[docID]
	return key, ok
}

// Annotate returns the annotation for one document.
func (r *Report) Annotate(docID string) (Annotation, bool) {
	key, ok := r.LineageOf(docID)
	if !ok {
		return Annotation{}, false
	}
	e := r.Lineages[key]
	for _, m := range e.Docs {
		if m.DocID == docID || m.AliasedFrom == docID {
			return annotation(e, m), true
		}
	}
	return Annotation{}, false
}

// Annotations returns one annotation per kept document, in report order.
func (r *Report) Annotations() []Annotation {
	out := make([]Annotation, 0, r.Kept)
	for _, e := range r.Entries() {
		for _, m := range e.Docs {
			out = append(out, annotation(e, m))
		}
	}
	return out
}

func annotation(e *Entry, m Member) Annotation {
	a := Annotation{
		DocID:        m.DocID,
		LineageKey:   e.Key,
		LatestAnyID:  e.LatestAnyID,
		LatestBaseID: e.LatestBaseID,
		IsLatestAny:  e.LatestAnyID != "" && m.DocID == e.LatestAnyID,
		IsLatestBase: e.LatestBaseID != "" && m.DocID == e.LatestBaseID,
	}
	if a.IsLatestAny {
		a.DocBase = e.Key
		a.DocBaseLabel = LabelFromKey(e.Key)
	}
	return a
}

func indexMembers(r *Report) map[string]string {
	idx := map[string]string{}
	for key, e := range r.Lineages {
		for _, m := range e.Docs {
			idx[m.DocID] = key
			if m.AliasedFrom != "" {
				idx[m.AliasedFrom] = key
			}
		}
	}
	return idx
}

// Presence returns a lookup from referenced ids to the snapshot documents
// they stand for in rep. An id is present when it names a kept document,
// directly or through the alias tables. An undated id stands for the latest
// document of its lineage.
func (b *Builder) Presence(rep *Report) func(refID string) (string, bool) {
	return func(refID string) (string, bool) {
		rec := b.norm.Normalize(document.Record{DocID: refID})
		if _, ok := rep.LineageOf(rec.DocID); ok {
			return rec.DocID, true
		}
		if _, ok := rep.LineageOf(refID); ok {
			return refID, true
		}
		if keying.IsDated(rec) {
			return "", false
		}
		key, ok := b.keyer.Key(rec.DocID, rec)
		if !ok {
			return "", false
		}
		e, ok := rep.Lookup(key.Join())
		if !ok || e.LatestAnyID == "" {
			return "", false
		}
		return e.LatestAnyID, true
	}
}
