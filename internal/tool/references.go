// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/references"
	"github.com/mediastandards/lineage/internal/references/extractors"
)

// MetadataExtractReferences describes the extract_references tool.
var MetadataExtractReferences = &mcp.Tool{
	Name: "extract_references",
	Description: "Extract the normative and bibliographic references of a document and resolve each " +
		"to a canonical document id. " +
		"Supported formats: markdown (reference list sections of a standard), snapshot (a JSON or YAML " +
		"document snapshot whose records carry reference lists). " +
		"References that cannot be resolved are returned with resolved=false so they can be mapped by hand.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw content of the document",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Format hint. One of: markdown, snapshot, json, yaml. If omitted, auto-detection is used.",
				"enum":        []string{"markdown", "snapshot", "json", "yaml"},
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional id of the citing document, recorded on every reference of a markdown source.",
			},
		},
	},
}

// InputExtractReferences is the input for the ExtractReferences tool.
type InputExtractReferences struct {
	Content  string `json:"content"`
	Format   string `json:"format"`
	SourceID string `json:"source_id"`
}

// ReferenceView is one extracted reference with its resolution.
type ReferenceView struct {
	CitingDocID string `json:"citing_doc_id"`
	Type        string `json:"type"`
	Cite        string `json:"cite,omitempty"`
	Href        string `json:"href,omitempty"`
	Title       string `json:"title,omitempty"`
	Resolved    bool   `json:"resolved"`
	RefID       string `json:"ref_id,omitempty"`
	MapSource   string `json:"map_source,omitempty"`
	MapDetail   string `json:"map_detail,omitempty"`
}

// OutputExtractReferences is the output for the ExtractReferences tool.
type OutputExtractReferences struct {
	References []ReferenceView `json:"references"`
	// ExtractorUsed is the name of the extractor that was selected.
	ExtractorUsed string           `json:"extractor_used"`
	Tally         references.Tally `json:"tally"`
}

// ExtractReferences runs the reference pipeline over the provided document
// and resolves every reference found.
func (t *Toolset) ExtractReferences(ctx context.Context, _ *mcp.CallToolRequest, input InputExtractReferences) (*mcp.CallToolResult, OutputExtractReferences, error) {
	if input.Content == "" {
		return nil, OutputExtractReferences{}, fmt.Errorf("content is required")
	}

	sourceID := input.SourceID
	if sourceID == "" {
		sourceID = "unknown"
	}

	idx := citation.NewIndex()
	pipeline := references.NewPipeline(references.NewRecorder(t.resolver, idx), extractors.Defaults()...)
	result, err := pipeline.Run(ctx, references.Source{
		Content: []byte(input.Content),
		Format:  input.Format,
		ID:      sourceID,
	})
	if err != nil {
		return nil, OutputExtractReferences{}, err
	}

	views := make([]ReferenceView, 0, len(result.References))
	for _, ref := range result.References {
		v := ReferenceView{
			CitingDocID: ref.Sighting.DocID,
			Type:        ref.Sighting.Type,
			Cite:        ref.Sighting.Cite,
			Href:        ref.Sighting.Href,
			Title:       ref.Sighting.Title,
		}
		if ref.RefID != "" {
			v.Resolved, v.RefID = true, ref.RefID
			v.MapSource, v.MapDetail = citation.SourceReplay, references.MapDetailReplay
		} else if res, ok := t.resolver.Resolve(ref.Sighting.Cite, ref.Sighting.Href); ok {
			v.Resolved, v.RefID = true, res.RefID
			v.MapSource, v.MapDetail = res.MapSource, res.MapDetail
		}
		views = append(views, v)
	}

	return nil, OutputExtractReferences{
		References:    views,
		ExtractorUsed: result.ExtractorUsed,
		Tally:         result.Tally,
	}, nil
}
