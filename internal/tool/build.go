// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mediastandards/lineage/internal/lineage"
	"github.com/mediastandards/lineage/internal/snapshot"
)

// MetadataBuildLineages describes the build_lineages tool.
var MetadataBuildLineages = &mcp.Tool{
	Name: "build_lineages",
	Description: "Group a document snapshot into lineages (all editions of one standard) and resolve " +
		"the latest edition of each. The latest edition is chosen from explicit latest flags first, " +
		"then from supersession edges, then by date. Advisory inconsistency flags are reported per lineage " +
		"and never change the result. Documents that cannot be keyed are listed as skipped.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Document snapshot: a JSON or YAML array of records, or an object with a documents array.",
			},
			"key": map[string]interface{}{
				"type":        "string",
				"description": "Optional lineage key (e.g. SMPTE|ST|2067|2). When set, only that lineage is returned.",
			},
			"include_skipped": map[string]interface{}{
				"type":        "boolean",
				"description": "Also list the skipped documents with their reasons.",
			},
		},
	},
}

// InputBuildLineages is the input for the BuildLineages tool.
type InputBuildLineages struct {
	Content        string `json:"content"`
	Key            string `json:"key"`
	IncludeSkipped bool   `json:"include_skipped"`
}

// LineageView is the condensed form of one lineage.
type LineageView struct {
	Key                string   `json:"key"`
	Label              string   `json:"label"`
	Publisher          string   `json:"publisher"`
	LatestAnyID        string   `json:"latest_any_id,omitempty"`
	LatestBaseID       string   `json:"latest_base_id,omitempty"`
	LatestActiveBaseID string   `json:"latest_active_base_id,omitempty"`
	PrevBaseID         string   `json:"prev_base_id,omitempty"`
	Docs               []string `json:"docs"`
	Flags              []string `json:"flags"`
}

// OutputBuildLineages is the output for the BuildLineages tool.
type OutputBuildLineages struct {
	Total       int                  `json:"total"`
	Kept        int                  `json:"kept"`
	Skipped     int                  `json:"skipped"`
	Lineages    []LineageView        `json:"lineages"`
	FlagCounts  map[string]int       `json:"flag_counts"`
	SkippedDocs []lineage.SkippedDoc `json:"skipped_docs"`
}

// BuildLineages decodes a snapshot and builds its lineage report.
func (t *Toolset) BuildLineages(_ context.Context, _ *mcp.CallToolRequest, input InputBuildLineages) (*mcp.CallToolResult, OutputBuildLineages, error) {
	if input.Content == "" {
		return nil, OutputBuildLineages{}, fmt.Errorf("content is required")
	}

	recs, err := snapshot.Decode([]byte(input.Content))
	if err != nil {
		return nil, OutputBuildLineages{}, err
	}

	builder := lineage.NewBuilder(t.norm, t.keyer,
		lineage.WithLogger(t.logger),
		lineage.WithMaxFlagExamples(t.maxFlagExamples))
	rep := builder.Build(recs)

	entries := rep.Entries()
	if input.Key != "" {
		e, ok := rep.Lookup(input.Key)
		if !ok {
			return nil, OutputBuildLineages{}, fmt.Errorf("lineage %q not found", input.Key)
		}
		entries = []*lineage.Entry{e}
	}

	out := OutputBuildLineages{
		Total:       rep.Total,
		Kept:        rep.Kept,
		Skipped:     rep.Skipped,
		Lineages:    make([]LineageView, 0, len(entries)),
		FlagCounts:  make(map[string]int, len(rep.FlagSummary.ByType)),
		SkippedDocs: []lineage.SkippedDoc{},
	}
	for _, e := range entries {
		out.Lineages = append(out.Lineages, lineageView(e))
	}
	for typ, sum := range rep.FlagSummary.ByType {
		out.FlagCounts[typ] = sum.Count
	}
	if input.IncludeSkipped {
		out.SkippedDocs = append(out.SkippedDocs, rep.SkippedDocs...)
	}
	return nil, out, nil
}

func lineageView(e *lineage.Entry) LineageView {
	v := LineageView{
		Key:                e.Key,
		Label:              lineage.LabelFromKey(e.Key),
		Publisher:          e.Publisher,
		LatestAnyID:        e.LatestAnyID,
		LatestBaseID:       e.LatestBaseID,
		LatestActiveBaseID: e.LatestActiveBaseID,
		PrevBaseID:         e.PrevBaseID,
		Docs:               make([]string, 0, len(e.Docs)),
		Flags:              make([]string, 0, len(e.Flags)),
	}
	for _, m := range e.Docs {
		v.Docs = append(v.Docs, m.DocID)
	}
	for _, f := range e.Flags {
		v.Flags = append(v.Flags, f.String())
	}
	return v
}
