// SPDX-License-Identifier: Apache-2.0

package lineage_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/document"
	"github.com/mediastandards/lineage/internal/keying"
	"github.com/mediastandards/lineage/internal/lineage"
	"github.com/mediastandards/lineage/internal/snapshot"
)

func newBuilder() *lineage.Builder {
	norm := alias.NewNormalizer(alias.DefaultConfig())
	return lineage.NewBuilder(norm, keying.NewKeyer(norm))
}

func flagStrings(flags []lineage.Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = f.String()
	}
	return out
}

func memberIDs(e *lineage.Entry) []string {
	out := make([]string, len(e.Docs))
	for i, m := range e.Docs {
		out[i] = m.DocID
	}
	return out
}

// ---------------------------------------------------------------------------
// Grouping and resolution
// ---------------------------------------------------------------------------

func TestBuild_AliasedEditionJoinsLineage(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.AG10b.2019"},
		{DocID: "SMPTE.AG10B.2020"},
	})

	require.Len(t, rep.Lineages, 1)
	e, ok := rep.Lookup("SMPTE|AG|10B|")
	require.True(t, ok)
	assert.Equal(t, []string{"SMPTE.AG10B.2019", "SMPTE.AG10B.2020"}, memberIDs(e))
	assert.Equal(t, "SMPTE.AG10B.2020", e.LatestAnyID)
	assert.Equal(t, "SMPTE.AG10B.2020", e.LatestBaseID)
	assert.Equal(t, "SMPTE.AG10b.2019", e.Docs[0].AliasedFrom)
	assert.False(t, lineage.HasFlag(e.Flags, lineage.FlagW3CMissingVersion))
	assert.Contains(t, flagStrings(e.Flags), "ALIASED_ID:SMPTE.AG10b.2019->SMPTE.AG10B.2019")
}

func TestBuild_ContradictoryStatus(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST2067-2.2020", Status: document.Status{Active: document.Bool(true), Withdrawn: true}},
		{DocID: "SMPTE.ST2067-2.2016", Status: document.Status{Active: document.Bool(true), Superseded: document.Bool(true)}},
	})

	e, ok := rep.Lookup("SMPTE|ST|2067|2")
	require.True(t, ok)
	flags := flagStrings(e.Flags)
	assert.Contains(t, flags, "CONTRADICTORY_STATUS_FLAGS:SMPTE.ST2067-2.2020:ACTIVE_AND_WITHDRAWN")
	assert.Contains(t, flags, "CONTRADICTORY_STATUS_FLAGS:SMPTE.ST2067-2.2016:ACTIVE_AND_SUPERSEDED")
	assert.True(t, e.HasWithdrawn)
	assert.Equal(t, "SMPTE.ST2067-2.2020", e.LatestActiveBaseID)
	assert.Equal(t, "SMPTE.ST2067-2.2016", e.PrevBaseID)
	assert.Equal(t, "SMPTE.ST2067-2.2016", e.LatestSupersededBaseID)
}

func TestBuild_MissingBaseForAmendment(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST2067-2.2020Am1.2021"},
	})

	e, ok := rep.Lookup("SMPTE|ST|2067|2")
	require.True(t, ok)
	assert.True(t, lineage.HasFlag(e.Flags, lineage.FlagMissingBaseForAmendment))
	assert.Empty(t, e.LatestBaseID)
	assert.Equal(t, "SMPTE.ST2067-2.2020Am1.2021", e.LatestAnyID)
	assert.Equal(t, lineage.Counts{Amendments: 1}, e.Counts)
}

func TestBuild_ExplicitLatestFlagWins(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST12-1.2015", Status: document.Status{LatestVersion: document.Bool(true)}},
		{DocID: "SMPTE.ST12-1.2020"},
	})

	e, ok := rep.Lookup("SMPTE|ST|12|1")
	require.True(t, ok)
	assert.Equal(t, "SMPTE.ST12-1.2015", e.LatestAnyID)
	assert.Equal(t, "SMPTE.ST12-1.2015", e.LatestBaseID)
	assert.Equal(t, "20150000", e.LatestDateKey)
	assert.Equal(t, []string{
		"LATEST_FLAG_BEFORE_DATE",
		"LATEST_FLAG_CONFLICT_WITH_GRAPH:any:SMPTE.ST12-1.2015<>SMPTE.ST12-1.2020",
		"LATEST_FLAG_CONFLICT_WITH_GRAPH:base:SMPTE.ST12-1.2015<>SMPTE.ST12-1.2020",
	}, flagStrings(e.Flags))
}

func TestBuild_GraphHeadBeatsRecency(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST12-1.2020", Status: document.Status{SupersededBy: []string{"SMPTE.ST12-1.2015"}}},
		{DocID: "SMPTE.ST12-1.2015"},
	})

	e, ok := rep.Lookup("SMPTE|ST|12|1")
	require.True(t, ok)
	assert.Equal(t, "SMPTE.ST12-1.2015", e.LatestAnyID)
	assert.Equal(t, "SMPTE.ST12-1.2015", e.LatestBaseID)
	assert.Empty(t, e.Flags)
}

func TestBuild_MultipleLatestFlags(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST12-1.2015", Status: document.Status{LatestVersion: document.Bool(true)}},
		{DocID: "SMPTE.ST12-1.2020", Status: document.Status{LatestVersion: document.Bool(true)}},
	})

	e, ok := rep.Lookup("SMPTE|ST|12|1")
	require.True(t, ok)
	assert.Equal(t, "SMPTE.ST12-1.2020", e.LatestAnyID)
	assert.True(t, lineage.HasFlag(e.Flags, lineage.FlagMultipleLatest))
	assert.True(t, lineage.HasFlag(e.Flags, lineage.FlagLatestBeforeDate))
	assert.False(t, lineage.HasFlag(e.Flags, lineage.FlagLatestConflictWithGraph))
}

func TestBuild_StatusDefaultsFromLatestFlag(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST12-1.2015", Status: document.Status{LatestVersion: document.Bool(false)}},
		{DocID: "SMPTE.ST12-1.2020", Status: document.Status{LatestVersion: document.Bool(true)}},
	})

	e, ok := rep.Lookup("SMPTE|ST|12|1")
	require.True(t, ok)
	older, newer := e.Docs[0], e.Docs[1]
	assert.False(t, older.StatusActive)
	assert.True(t, older.StatusSuperseded)
	assert.True(t, newer.StatusActive)
	assert.False(t, newer.StatusSuperseded)
	assert.True(t, e.HasActiveBase)
}

func TestHeads(t *testing.T) {
	members := []lineage.Member{
		{DocID: "a", IsBase: true, SupersededBy: []string{"b"}},
		{DocID: "b", IsBase: true, SupersededBy: []string{"outside"}},
		{DocID: "b-am1", IsBase: false},
		{DocID: "c", IsBase: true, SupersededBy: []string{"b-am1"}},
	}

	var anyIDs, baseIDs []string
	for _, m := range lineage.Heads(members, false) {
		anyIDs = append(anyIDs, m.DocID)
	}
	for _, m := range lineage.Heads(members, true) {
		baseIDs = append(baseIDs, m.DocID)
	}
	assert.Equal(t, []string{"b", "b-am1"}, anyIDs)
	assert.Equal(t, []string{"b", "c"}, baseIDs)
}

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

func TestBuild_OutOfLineageVersionlessSuccessor(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "W3C.html52.20171214", Status: document.Status{SupersededBy: []string{"WHATWG.HTML"}}},
		{DocID: "WHATWG.HTML", Href: "https://html.spec.whatwg.org/multipage/"},
	})

	e, ok := rep.Lookup("W3C|HTML||")
	require.True(t, ok)
	assert.Equal(t, []string{"SUPERSEDED_BY_OUT_OF_LINEAGE:W3C.html52.20171214->WHATWG.HTML"}, flagStrings(e.Flags))
	require.NotNil(t, e.ExternalSuccessor)
	assert.Equal(t, lineage.ExternalSuccessor{
		Reason:    lineage.ReasonExternalVersionless,
		DocID:     "WHATWG.HTML",
		Publisher: "WHATWG",
	}, *e.ExternalSuccessor)
	assert.Equal(t, "W3C.html52.20171214", e.LatestAnyID)
	assert.Equal(t, "HTML", e.W3CFamily)
}

func TestBuild_ExplicitVersionlessFalseSuppressesSuccessor(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "W3C.html52.20171214", Status: document.Status{SupersededBy: []string{"WHATWG.HTML"}}},
		{DocID: "WHATWG.HTML", Status: document.Status{Versionless: document.Bool(false)}},
	})

	e, ok := rep.Lookup("W3C|HTML||")
	require.True(t, ok)
	assert.Nil(t, e.ExternalSuccessor)
}

func TestBuild_DocIDPubDateMismatch(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST2067-2.2020", PublicationDate: "2019-11-01"},
	})

	e, ok := rep.Lookup("SMPTE|ST|2067|2")
	require.True(t, ok)
	assert.Equal(t, []string{"DOCID_PUBDATE_MISMATCH:SMPTE.ST2067-2.2020:docIdYear=2020,pubYear=2019"}, flagStrings(e.Flags))
	assert.Equal(t, "20191101", e.Docs[0].DateKey)
}

func TestBuild_MixedSMPTEDocTypes(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.RP6.2010"},
		{DocID: "SMPTE.RDD6.2012"},
	})

	for _, key := range []string{"SMPTE|RP|6|", "SMPTE|RDD|6|"} {
		e, ok := rep.Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, []string{"MIXED_SMPTE_DOCTYPES", "DOC_TYPE_CHANGE_WITHOUT_PART"}, flagStrings(e.Flags), key)
	}
}

func TestBuild_MixedSMPTEDocTypesSkipsPartLineages(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "SMPTE.ST2067-2.2020"},
		{DocID: "SMPTE.ST2067-3.2020"},
		{DocID: "SMPTE.RP2067.2019"},
	})

	for _, key := range []string{"SMPTE|ST|2067|2", "SMPTE|ST|2067|3"} {
		e, ok := rep.Lookup(key)
		require.True(t, ok, key)
		assert.Empty(t, flagStrings(e.Flags), key)
	}
	e, ok := rep.Lookup("SMPTE|RP|2067|")
	require.True(t, ok)
	assert.Equal(t, []string{"MIXED_SMPTE_DOCTYPES"}, flagStrings(e.Flags))
}

func TestBuild_W3CMissingVersion(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "W3C.ttml.20181108"},
		{DocID: "W3C.ttml.20200101"},
	})

	e, ok := rep.Lookup("W3C|ttml||")
	require.True(t, ok)
	assert.Equal(t, []string{"W3C_MISSING_VERSION"}, flagStrings(e.Flags))
}

func TestBuild_W3CAliasCollision(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "W3C.ttaf1-dfxp.20061114"},
		{DocID: "W3C.ttml1.20100218"},
	})

	e, ok := rep.Lookup("W3C|ttml|1|")
	require.True(t, ok)
	assert.Equal(t, []string{"W3C_ALIAS_COLLISION:ttaf1-dfxp=>ttml1"}, flagStrings(e.Flags))
	assert.Equal(t, "1", e.W3CVersion)
}

func TestBuild_C14NSpellingsJoinLineage(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "W3C.xml-c14n11.20080502"},
		{DocID: "W3C.xmlc14n11.20080502"},
	})

	require.Equal(t, []string{"W3C|xmlc14n|1.1|"}, rep.LineageOrder)
	assert.Len(t, rep.Lineages["W3C|xmlc14n|1.1|"].Docs, 2)
}

func TestBuild_W3CEditionWithoutDate(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: "W3C.REC-xml.20081126", DocTitle: "Extensible Markup Language (XML) 1.0 (Fifth Edition)"},
	})

	require.Len(t, rep.LineageOrder, 1)
	e := rep.Lineages[rep.LineageOrder[0]]
	assert.Contains(t, flagStrings(e.Flags), "W3C_EDITION_WITHOUT_DATE:W3C.REC-xml.20081126")
}

func TestBuild_NullSnapshotFields(t *testing.T) {
	recs, err := snapshot.Decode([]byte(`[
		{"docId": "SMPTE.ST2067-2.2020", "status": {"active": true, "withdrawn": null, "superseded": null}},
		{"docId": null}
	]`))
	require.NoError(t, err)

	rep := newBuilder().Build(recs)
	assert.Equal(t, 1, rep.Kept)
	e, ok := rep.Lookup("SMPTE|ST|2067|2")
	require.True(t, ok)
	assert.Empty(t, flagStrings(e.Flags))
	assert.False(t, e.Docs[0].StatusWithdrawn)

	require.Len(t, rep.SkippedDocs, 1)
	assert.Equal(t, lineage.ReasonFiltered, rep.SkippedDocs[0].Reason)
	assert.Equal(t, "docId=empty", rep.SkippedDocs[0].RuleDetail)
}

func TestFlag_MarshalText(t *testing.T) {
	out, err := json.Marshal([]lineage.Flag{
		{Kind: lineage.FlagMultipleLatest},
		{Kind: lineage.FlagSupersededOutOfLineage, DocID: "a", Other: "b"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `["MULTIPLE_LATEST_FLAGS","SUPERSEDED_BY_OUT_OF_LINEAGE:a->b"]`, string(out))
}

// ---------------------------------------------------------------------------
// Report
// ---------------------------------------------------------------------------

func TestBuild_SkippedDocuments(t *testing.T) {
	rep := newBuilder().Build([]document.Record{
		{DocID: ""},
		{DocID: "SMPTE.ST1.2001", DocType: "Book"},
		{DocID: "SMPTE.ST2.2001", Status: document.Status{Draft: true}},
		{DocID: "SMPTE.ST3.2001", Status: document.Status{State: "Draft"}},
		{DocID: "FOO.BAR.2020"},
	})

	assert.Equal(t, 5, rep.Total)
	assert.Equal(t, 0, rep.Kept)
	assert.Equal(t, 5, rep.Skipped)
	assert.Empty(t, rep.Lineages)
	assert.Equal(t, map[string]int{"FILTERED": 4, "UNKEYED": 1, "UNKNOWN": 0}, rep.SummaryByReason)

	details := make([]string, len(rep.SkippedDocs))
	for i, s := range rep.SkippedDocs {
		details[i] = s.Reason + "/" + s.RuleDetail
	}
	assert.Equal(t, []string{
		"FILTERED/docId=empty",
		"FILTERED/docType=Book",
		"FILTERED/status.draft=true",
		"FILTERED/status.state=draft",
		"UNKEYED/noRegexMatch",
	}, details)
	assert.Equal(t, "FOO", rep.SkippedDocs[4].Publisher)

	assert.Equal(t, []lineage.PublisherCount{
		{Publisher: "SMPTE", Count: 3},
		{Publisher: "FOO", Count: 1},
	}, rep.PublisherCounts)
}

func sampleSnapshot() []document.Record {
	return []document.Record{
		{DocID: "SMPTE.ST2067-10.2020"},
		{DocID: "SMPTE.ST2067-2.2020", Status: document.Status{LatestVersion: document.Bool(true)}},
		{DocID: "SMPTE.ST2067-2.2016", Status: document.Status{SupersededBy: []string{"SMPTE.ST2067-2.2020"}}},
		{DocID: "SMPTE.ST2067-2.2020Am1.2021"},
		{DocID: "SMPTE.ST429-6.2023-05"},
		{DocID: "SMPTE.ST429-6.2006", PublicationDate: "2006-03-01"},
		{DocID: "rfc2119"},
		{DocID: "W3C.xmlschema-1.20041028"},
		{DocID: "W3C.ttml.20181108"},
		{DocID: "W3C.ttml.20200101"},
		{DocID: "FOO.BAR.2020"},
	}
}

func TestBuild_LineageOrder(t *testing.T) {
	rep := newBuilder().Build(sampleSnapshot())

	assert.Equal(t, []string{
		"IETF|RFC|2119|",
		"SMPTE|ST|429|6",
		"SMPTE|ST|2067|2",
		"SMPTE|ST|2067|10",
		"W3C|ttml||",
		"W3C|xmlschema|1|",
	}, rep.LineageOrder)
	assert.Equal(t, 10, rep.Kept)
	assert.Equal(t, 1, rep.Skipped)
}

func TestBuild_Invariants(t *testing.T) {
	rep := newBuilder().Build(sampleSnapshot())

	seen := map[string]bool{}
	for _, e := range rep.Entries() {
		assert.False(t, seen[e.Key], "duplicate lineage key %s", e.Key)
		seen[e.Key] = true
		for i := 1; i < len(e.Docs); i++ {
			assert.LessOrEqual(t, e.Docs[i-1].DateKey, e.Docs[i].DateKey, e.Key)
		}
	}
	assert.Len(t, seen, len(rep.Lineages))

	e, ok := rep.Lookup("SMPTE|ST|2067|2")
	require.True(t, ok)
	assert.Equal(t, []string{"SMPTE.ST2067-2.2016", "SMPTE.ST2067-2.2020", "SMPTE.ST2067-2.2020Am1.2021"}, memberIDs(e))
	assert.Equal(t, lineage.Counts{Bases: 2, Amendments: 1}, e.Counts)
	assert.Equal(t, "SMPTE.ST2067-2.2020", e.LatestBaseID)
}

func TestBuild_Deterministic(t *testing.T) {
	b := newBuilder()
	first, err := json.Marshal(b.Build(sampleSnapshot()))
	require.NoError(t, err)
	second, err := json.Marshal(b.Build(sampleSnapshot()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	in := []document.Record{{DocID: "SMPTE.AG10b.2019", Status: document.Status{SupersededBy: []string{"x"}}}}
	newBuilder().Build(in)
	assert.Equal(t, "SMPTE.AG10b.2019", in[0].DocID)
	assert.Empty(t, in[0].AliasedFrom)
	assert.Nil(t, in[0].W3C)
}

func TestBuild_FlagSummary(t *testing.T) {
	norm := alias.NewNormalizer(alias.DefaultConfig())
	b := lineage.NewBuilder(norm, keying.NewKeyer(norm), lineage.WithMaxFlagExamples(1))
	rep := b.Build([]document.Record{
		{DocID: "SMPTE.ST1-1.2020Am1.2021"},
		{DocID: "SMPTE.ST2-1.2020Am1.2021"},
	})

	sum := rep.FlagSummary
	assert.Equal(t, 2, sum.TotalFlags)
	require.Contains(t, sum.ByType, "MISSING_BASE_FOR_AMENDMENT")
	mb := sum.ByType["MISSING_BASE_FOR_AMENDMENT"]
	assert.Equal(t, 2, mb.Count)
	assert.Equal(t, []lineage.FlagExample{{Lineage: "SMPTE|ST|1|1", Flag: "MISSING_BASE_FOR_AMENDMENT"}}, mb.Examples)
}

// ---------------------------------------------------------------------------
// Annotations and presence
// ---------------------------------------------------------------------------

func TestLabelFromKey(t *testing.T) {
	tests := []struct {
		join string
		want string
	}{
		{"SMPTE|ST|2067|2", "SMPTE ST 2067-2"},
		{"IETF|RFC|2119|", "IETF RFC 2119"},
		{"W3C|ttml||", "W3C ttml"},
		{"DCI|M||DCP", "DCI M"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.join, func(t *testing.T) {
			assert.Equal(t, tt.want, lineage.LabelFromKey(tt.join))
		})
	}
}

func TestReport_Annotate(t *testing.T) {
	rep := newBuilder().Build(sampleSnapshot())

	latest, ok := rep.Annotate("SMPTE.ST2067-2.2020")
	require.True(t, ok)
	assert.Equal(t, lineage.Annotation{
		DocID:        "SMPTE.ST2067-2.2020",
		LineageKey:   "SMPTE|ST|2067|2",
		LatestAnyID:  "SMPTE.ST2067-2.2020",
		LatestBaseID: "SMPTE.ST2067-2.2020",
		IsLatestAny:  true,
		IsLatestBase: true,
		DocBase:      "SMPTE|ST|2067|2",
		DocBaseLabel: "SMPTE ST 2067-2",
	}, latest)

	older, ok := rep.Annotate("SMPTE.ST2067-2.2016")
	require.True(t, ok)
	assert.False(t, older.IsLatestAny)
	assert.Empty(t, older.DocBase)

	_, ok = rep.Annotate("FOO.BAR.2020")
	assert.False(t, ok)

	assert.Len(t, rep.Annotations(), rep.Kept)
}

func TestBuilder_Presence(t *testing.T) {
	b := newBuilder()
	rep := b.Build([]document.Record{
		{DocID: "SMPTE.AG10b.2019"},
		{DocID: "SMPTE.AG10B.2020"},
	})
	present := b.Presence(rep)

	tests := []struct {
		refID   string
		wantDoc string
		wantOK  bool
	}{
		{"SMPTE.AG10B.2020", "SMPTE.AG10B.2020", true},
		{"SMPTE.AG10b.2019", "SMPTE.AG10B.2019", true},
		{"SMPTE.AG10B", "SMPTE.AG10B.2020", true},
		{"SMPTE.AG10B.2018", "", false},
		{"RFC2119", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.refID, func(t *testing.T) {
			doc, ok := present(tt.refID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantDoc, doc)
		})
	}
}
