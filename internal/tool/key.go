// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mediastandards/lineage/internal/document"
	"github.com/mediastandards/lineage/internal/keying"
)

// MetadataKeyDocumentID describes the key_document_id tool.
var MetadataKeyDocumentID = &mcp.Tool{
	Name: "key_document_id",
	Description: "Compute the lineage key of a standards document identifier. " +
		"The identifier is first normalized through the alias tables, then matched against the " +
		"publisher grammars in priority order. Documents sharing a key are editions of one standard. " +
		"Returns keyed=false when no grammar recognizes the identifier.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"doc_id"},
		"properties": map[string]interface{}{
			"doc_id": map[string]interface{}{
				"type":        "string",
				"description": "Document identifier, e.g. SMPTE.ST2067-2.2020 or W3C.ttml2.20181108",
			},
			"publisher": map[string]interface{}{
				"type":        "string",
				"description": "Optional publisher name. Inferred from the identifier when omitted.",
			},
			"href": map[string]interface{}{
				"type":        "string",
				"description": "Optional document URL. Used to recover W3C shortnames.",
			},
			"doc_title": map[string]interface{}{
				"type":        "string",
				"description": "Optional document title. Used to infer W3C versions and editions.",
			},
		},
	},
}

// InputKeyDocumentID is the input for the KeyDocumentID tool.
type InputKeyDocumentID struct {
	DocID     string `json:"doc_id"`
	Publisher string `json:"publisher"`
	Href      string `json:"href"`
	DocTitle  string `json:"doc_title"`
}

// OutputKeyDocumentID is the output for the KeyDocumentID tool.
type OutputKeyDocumentID struct {
	Keyed bool `json:"keyed"`
	// Key is the joined lineage key, empty when not keyed.
	Key       string `json:"key"`
	Publisher string `json:"publisher"`
	Suite     string `json:"suite,omitempty"`
	Number    string `json:"number,omitempty"`
	Part      string `json:"part,omitempty"`
	// Rule is the name of the grammar matcher that produced the key.
	Rule            string `json:"rule,omitempty"`
	NormalizedDocID string `json:"normalized_doc_id"`
	AliasedFrom     string `json:"aliased_from,omitempty"`
	DateKey         string `json:"date_key"`
	IsBase          bool   `json:"is_base"`
	IsAmendment     bool   `json:"is_amendment"`
	IsSupplement    bool   `json:"is_supplement"`
}

// KeyDocumentID normalizes and keys one identifier.
func (t *Toolset) KeyDocumentID(_ context.Context, _ *mcp.CallToolRequest, input InputKeyDocumentID) (*mcp.CallToolResult, OutputKeyDocumentID, error) {
	if input.DocID == "" {
		return nil, OutputKeyDocumentID{}, fmt.Errorf("doc_id is required")
	}

	rec := t.norm.Normalize(document.Record{
		DocID:     input.DocID,
		Publisher: input.Publisher,
		Href:      input.Href,
		DocTitle:  input.DocTitle,
	})

	out := OutputKeyDocumentID{
		Publisher:       t.keyer.Publisher(rec),
		NormalizedDocID: rec.DocID,
		AliasedFrom:     rec.AliasedFrom,
		DateKey:         keying.DateKey(rec),
		IsBase:          keying.IsBase(rec.DocID),
		IsAmendment:     keying.IsAmendment(rec.DocID),
		IsSupplement:    keying.IsSupplement(rec.DocID),
	}

	key, rule, ok := t.keyer.KeyWithRule(rec.DocID, rec)
	if !ok {
		return nil, out, nil
	}
	out.Keyed = true
	out.Key = key.Join()
	out.Publisher = key.Publisher
	out.Suite = key.Suite
	out.Number = key.Number
	out.Part = key.Part
	out.Rule = rule
	return nil, out, nil
}
