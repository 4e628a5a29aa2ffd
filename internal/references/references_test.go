// SPDX-License-Identifier: Apache-2.0

package references_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/references"
	"github.com/mediastandards/lineage/internal/references/extractors"
)

const standardMarkdown = `# SMPTE ST 2067-3:2020

Some scope text.

## Normative References

- SMPTE ST 2067-2:2020, *Interoperable Master Format — Core Constraints*, url: https://doi.org/10.5594/SMPTE.ST2067-2.2020
- [IETF RFC 2119](https://www.rfc-editor.org/rfc/rfc2119), Key words for use in RFCs
  to Indicate Requirement Levels
- Proceedings of the IRE, volume 12

## Bibliography

1. ISO/IEC 14496-12:2015+A1:2018, Information technology — Coding of audio-visual objects

## Annex A

- SMPTE ST 429-2:2009, not a reference
`

const snapshotJSON = `[
  {"docId": "SMPTE.ST2067-3.2020", "references": {"normative": ["SMPTE.ST2067-2.2020", "RFC2119", ""], "bibliographic": ["ISO.14496-12.2015"]}},
  {"docId": "SMPTE.ST2067-2.2020"}
]`

// ---------------------------------------------------------------------------
// Section rules
// ---------------------------------------------------------------------------

func TestSectionType(t *testing.T) {
	tests := []struct {
		heading string
		want    string
		wantOK  bool
	}{
		{"Normative References", references.TypeNormative, true},
		{"2 Normative references", references.TypeNormative, true},
		{"Bibliography", references.TypeBibliographic, true},
		{"Informative References", references.TypeBibliographic, true},
		{"Scope", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			got, ok := references.SectionType(tt.heading)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Extractors
// ---------------------------------------------------------------------------

func TestMarkdownExtractor_Extract(t *testing.T) {
	e := extractors.NewMarkdownExtractor()
	src := references.Source{Content: []byte(standardMarkdown), Format: "markdown", ID: "SMPTE.ST2067-3.2020"}
	require.True(t, e.CanHandle(src))

	refs, err := e.Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, refs, 4)

	first := refs[0].Sighting
	assert.Equal(t, "SMPTE.ST2067-3.2020", first.DocID)
	assert.Equal(t, references.TypeNormative, first.Type)
	assert.Equal(t, "SMPTE ST 2067-2:2020", first.Cite)
	assert.Equal(t, "https://doi.org/10.5594/SMPTE.ST2067-2.2020", first.Href)
	assert.Equal(t, "Interoperable Master Format — Core Constraints", first.Title)
	assert.Empty(t, refs[0].RefID)

	rfc := refs[1].Sighting
	assert.Equal(t, "IETF RFC 2119", rfc.Cite)
	assert.Equal(t, "https://www.rfc-editor.org/rfc/rfc2119", rfc.Href)
	assert.Equal(t, "Key words for use in RFCs to Indicate Requirement Levels", rfc.Title)

	assert.Equal(t, "Proceedings of the IRE", refs[2].Sighting.Cite)

	iso := refs[3].Sighting
	assert.Equal(t, references.TypeBibliographic, iso.Type)
	assert.Equal(t, "ISO/IEC 14496-12:2015+A1:2018", iso.Cite)
}

func TestSnapshotExtractor_Extract(t *testing.T) {
	e := extractors.NewSnapshotExtractor()
	src := references.Source{Content: []byte(snapshotJSON)}
	require.True(t, e.CanHandle(src))

	refs, err := e.Extract(context.Background(), src)
	require.NoError(t, err)

	var got []string
	for _, r := range refs {
		got = append(got, r.Sighting.DocID+" "+r.Sighting.Type+" "+r.RefID)
	}
	assert.Equal(t, []string{
		"SMPTE.ST2067-3.2020 normative SMPTE.ST2067-2.2020",
		"SMPTE.ST2067-3.2020 normative RFC2119",
		"SMPTE.ST2067-3.2020 bibliographic ISO.14496-12.2015",
	}, got)

	_, err = e.Extract(context.Background(), references.Source{Content: []byte(`{"items": []}`)})
	assert.Error(t, err)
}

func TestExtractors_CanHandle(t *testing.T) {
	tests := []struct {
		name     string
		source   references.Source
		snapshot bool
		markdown bool
	}{
		{"json array", references.Source{Content: []byte(`[{"docId":"X"}]`)}, true, false},
		{"yaml list with comment", references.Source{Content: []byte("# registry\n- docId: X\n")}, true, true},
		{"yaml documents key", references.Source{Content: []byte("documents:\n  - docId: X\n")}, true, false},
		{"markdown", references.Source{Content: []byte("# Title\n\n## Bibliography\n")}, false, true},
		{"format hint", references.Source{Content: []byte("anything"), Format: "md"}, false, true},
		{"plain text", references.Source{Content: []byte("just words")}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.snapshot, extractors.NewSnapshotExtractor().CanHandle(tt.source))
			assert.Equal(t, tt.markdown, extractors.NewMarkdownExtractor().CanHandle(tt.source))
		})
	}
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func newPipeline() (*references.Pipeline, *citation.Index) {
	idx := citation.NewIndex()
	rec := references.NewRecorder(citation.NewResolver(nil), idx)
	return references.NewPipeline(rec, extractors.Defaults()...), idx
}

func TestPipeline_RegisteredExtractors(t *testing.T) {
	p, _ := newPipeline()
	assert.Equal(t, []string{"snapshot", "markdown"}, p.RegisteredExtractors())
}

func TestPipeline_RunMarkdown(t *testing.T) {
	p, idx := newPipeline()

	res, err := p.Run(context.Background(), references.Source{Content: []byte(standardMarkdown), ID: "SMPTE.ST2067-3.2020"})
	require.NoError(t, err)
	assert.Equal(t, "markdown", res.ExtractorUsed)
	assert.Equal(t, references.Tally{Resolved: 3, Unresolved: 1}, res.Tally)

	snap := idx.Snapshot()
	assert.Contains(t, snap.Refs, "SMPTE.ST2067-2.2020")
	assert.Contains(t, snap.Refs, "RFC2119")
	assert.Contains(t, snap.Refs, "ISO.14496-12.2018")
	require.Len(t, snap.Orphans, 1)
	assert.Equal(t, "Proceedings of the IRE", snap.Orphans[0].Cite)
}

func TestPipeline_RunSnapshotReplays(t *testing.T) {
	p, idx := newPipeline()

	res, err := p.Run(context.Background(), references.Source{Content: []byte(snapshotJSON), Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, "snapshot", res.ExtractorUsed)
	assert.Equal(t, references.Tally{Replayed: 3}, res.Tally)

	ref := idx.Snapshot().Refs["RFC2119"]
	assert.Equal(t, []string{citation.SourceReplay}, ref.Provenance.MapSource)
	assert.Equal(t, []string{references.MapDetailReplay}, ref.Provenance.MapDetails)
}

func TestPipeline_UnsupportedSource(t *testing.T) {
	p, _ := newPipeline()
	_, err := p.Run(context.Background(), references.Source{Content: []byte("just words"), ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extractor found")
}

func TestPipeline_ExtractWithoutRecorder(t *testing.T) {
	p := references.NewPipeline(nil, extractors.Defaults()...)
	refs, used, err := p.Extract(context.Background(), references.Source{Content: []byte(standardMarkdown)})
	require.NoError(t, err)
	assert.Equal(t, "markdown", used)
	assert.Len(t, refs, 4)

	res, err := p.Run(context.Background(), references.Source{Content: []byte(standardMarkdown)})
	require.NoError(t, err)
	assert.Equal(t, references.Tally{}, res.Tally)
}

func TestPipeline_CancelledContext(t *testing.T) {
	p, _ := newPipeline()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, references.Source{Content: []byte(standardMarkdown)})
	assert.ErrorIs(t, err, context.Canceled)
}
