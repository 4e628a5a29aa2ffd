// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetadataResolveCitation describes the resolve_citation tool.
var MetadataResolveCitation = &mcp.Tool{
	Name: "resolve_citation",
	Description: "Resolve a free-text citation, optionally with its link, to a canonical document id. " +
		"The configured cite pattern table is consulted first, then known document portal URLs, " +
		"then per-publisher citation grammars. Returns resolved=false for citations that should be " +
		"triaged by hand.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Citation text, e.g. \"SMPTE ST 2067-2:2020\"",
			},
			"href": map[string]interface{}{
				"type":        "string",
				"description": "Optional link attached to the citation.",
			},
		},
	},
}

// InputResolveCitation is the input for the ResolveCitation tool.
type InputResolveCitation struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// OutputResolveCitation is the output for the ResolveCitation tool.
type OutputResolveCitation struct {
	Resolved bool   `json:"resolved"`
	RefID    string `json:"ref_id,omitempty"`
	// MapSource is plain, regex or href.
	MapSource string `json:"map_source,omitempty"`
	MapDetail string `json:"map_detail,omitempty"`
}

// ResolveCitation maps one citation to a document id.
func (t *Toolset) ResolveCitation(_ context.Context, _ *mcp.CallToolRequest, input InputResolveCitation) (*mcp.CallToolResult, OutputResolveCitation, error) {
	if input.Text == "" && input.Href == "" {
		return nil, OutputResolveCitation{}, fmt.Errorf("text or href is required")
	}

	res, ok := t.resolver.Resolve(input.Text, input.Href)
	if !ok {
		return nil, OutputResolveCitation{}, nil
	}
	return nil, OutputResolveCitation{
		Resolved:  true,
		RefID:     res.RefID,
		MapSource: res.MapSource,
		MapDetail: res.MapDetail,
	}, nil
}
