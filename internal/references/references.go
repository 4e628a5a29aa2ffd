// SPDX-License-Identifier: Apache-2.0

// Package references pulls reference lists out of documents and records
// them in a citation index.
package references

import (
	"context"

	"github.com/mediastandards/lineage/internal/citation"
)

// Reference types.
const (
	TypeNormative     = "normative"
	TypeBibliographic = "bibliographic"
)

// Source is a document to extract references from.
type Source struct {
	// Content is the raw document content.
	Content []byte
	Format  string
	// ID names the citing document. Extractors that read whole snapshots
	// take the citing ids from the records instead.
	ID string
}

// Reference is one entry of a reference list. RefID is set when the source
// already names the canonical id, in which case the citation text is not
// resolved again.
type Reference struct {
	Sighting citation.Sighting
	RefID    string
}

type Extractor interface {
	CanHandle(source Source) bool
	Extract(ctx context.Context, source Source) ([]Reference, error)
	Name() string
}
