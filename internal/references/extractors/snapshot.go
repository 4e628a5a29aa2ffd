// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/references"
	"github.com/mediastandards/lineage/internal/snapshot"
)

// SnapshotExtractor replays the reference lists stored on the records of a
// document snapshot. The ids are canonical already and are not resolved
// again.
type SnapshotExtractor struct{}

func NewSnapshotExtractor() *SnapshotExtractor {
	return &SnapshotExtractor{}
}

func (e *SnapshotExtractor) Name() string {
	return "snapshot"
}

func (e *SnapshotExtractor) CanHandle(source references.Source) bool {
	switch strings.ToLower(source.Format) {
	case "snapshot", "yaml", "yml", "json":
		return true
	}
	content := strings.TrimSpace(string(source.Content))
	if strings.HasPrefix(content, "[") || strings.HasPrefix(content, "{") {
		return true
	}
	// YAML snapshots: a documents key or a list of records.
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.HasPrefix(line, "documents:") || strings.HasPrefix(line, "- docId:")
	}
	return false
}

func (e *SnapshotExtractor) Extract(_ context.Context, source references.Source) ([]references.Reference, error) {
	recs, err := snapshot.Decode(source.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	var refs []references.Reference
	for _, rec := range recs {
		if rec.DocID == "" {
			continue
		}
		lists := []struct {
			refType string
			ids     []string
		}{
			{references.TypeNormative, rec.References.Normative},
			{references.TypeBibliographic, rec.References.Bibliographic},
		}
		for _, list := range lists {
			for _, id := range list.ids {
				id = strings.TrimSpace(id)
				if id == "" {
					continue
				}
				refs = append(refs, references.Reference{
					Sighting: citation.Sighting{DocID: rec.DocID, Type: list.refType},
					RefID:    id,
				})
			}
		}
	}
	return refs, nil
}

// Defaults returns the built-in extractors in selection order.
func Defaults() []references.Extractor {
	return []references.Extractor{
		NewSnapshotExtractor(),
		NewMarkdownExtractor(),
	}
}
