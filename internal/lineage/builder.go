// SPDX-License-Identifier: Apache-2.0

package lineage

import (
	"cmp"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/document"
	"github.com/mediastandards/lineage/internal/keying"
)

// DefaultMaxFlagExamples caps the examples kept per flag type.
const DefaultMaxFlagExamples = 100

// ReasonExternalVersionless marks a successor that lives outside the
// lineage and has no versions of its own.
const ReasonExternalVersionless = "external-versionless"

var (
	isoDateRe      = regexp.MustCompile(`^(\d{4})-\d{2}-\d{2}$`)
	whatwgHTMLRe   = regexp.MustCompile(`(?i)^WHATWG\.HTML$`)
	whatwgHTMLHref = regexp.MustCompile(`(?i)html\.spec\.whatwg\.org`)
)

// Builder groups a snapshot of records into lineages.
//
// A Builder holds no per-run state; Build may be called repeatedly and
// from several goroutines as long as each caller owns its input slice.
type Builder struct {
	norm            *alias.Normalizer
	keyer           *keying.Keyer
	logger          *slog.Logger
	maxFlagExamples int
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-document debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMaxFlagExamples sets how many examples the flag summary keeps per
// flag type. Non-positive values keep the default.
func WithMaxFlagExamples(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxFlagExamples = n
		}
	}
}

// NewBuilder creates a Builder that normalizes with norm and keys with keyer.
func NewBuilder(norm *alias.Normalizer, keyer *keying.Keyer, opts ...Option) *Builder {
	b := &Builder{
		norm:            norm,
		keyer:           keyer,
		logger:          slog.Default().With(slog.String("component", "lineage")),
		maxFlagExamples: DefaultMaxFlagExamples,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type group struct {
	key     keying.Key
	members []Member
}

// smpteFamily collects the SMPTE lineages sharing one number.
type smpteFamily struct {
	docTypes map[string]bool
	anyPart  bool
}

// Build normalizes, keys and groups records and resolves every lineage.
// The input is not modified. The result depends only on records and the
// Builder's configuration.
func (b *Builder) Build(records []document.Record) *Report {
	rep := &Report{
		Total:        len(records),
		Lineages:     map[string]*Entry{},
		LineageOrder: []string{},
		SkippedDocs:  []SkippedDoc{},
	}

	pubCounts := map[string]int{}
	known := map[string]document.Record{}
	groups := map[string]*group{}

	for _, raw := range records {
		rec := raw
		if rec.DocID != "" {
			rec = b.norm.Normalize(raw)
			known[rec.DocID] = rec
		}
		pub := b.keyer.Publisher(rec)
		if rec.DocID != "" {
			pubCounts[pub]++
		}

		if detail, category, filtered := filterRule(rec); filtered {
			b.logger.Debug("document filtered",
				slog.String("docId", rec.DocID),
				slog.String("rule", detail))
			rep.SkippedDocs = append(rep.SkippedDocs, filteredDoc(rec.DocID, pub, detail, category))
			continue
		}

		key, rule, ok := b.keyer.KeyWithRule(rec.DocID, rec)
		if !ok {
			b.logger.Debug("document unkeyed", slog.String("docId", rec.DocID))
			rep.SkippedDocs = append(rep.SkippedDocs, unkeyedDoc(rec.DocID, pub))
			continue
		}
		b.logger.Debug("document keyed",
			slog.String("docId", rec.DocID),
			slog.String("rule", rule),
			slog.String("key", key.Join()))

		join := key.Join()
		g, ok := groups[join]
		if !ok {
			g = &group{key: key}
			groups[join] = g
		}
		g.members = append(g.members, newMember(rec))
	}

	smpte := smpteFamilies(groups)

	entries := make([]*Entry, 0, len(groups))
	for join, g := range groups {
		e := b.resolve(join, g, smpte)
		b.attachVersionlessSuccessor(e, known)
		entries = append(entries, e)
		rep.Kept += len(e.Docs)
	}
	slices.SortFunc(entries, compareEntries)

	for _, e := range entries {
		rep.Lineages[e.Key] = e
		rep.LineageOrder = append(rep.LineageOrder, e.Key)
	}
	rep.Skipped = len(rep.SkippedDocs)
	rep.PublisherCounts = sortedPublisherCounts(pubCounts)
	rep.FlagSummary = summarizeFlags(entries, b.maxFlagExamples)
	rep.SummaryByReason = summarizeSkipped(rep.SkippedDocs)
	rep.byDoc = indexMembers(rep)

	b.logger.Debug("lineages built",
		slog.Int("total", rep.Total),
		slog.Int("kept", rep.Kept),
		slog.Int("skipped", rep.Skipped),
		slog.Int("lineages", len(entries)))
	return rep
}

func newMember(rec document.Record) Member {
	st := rec.Status
	latest := document.IsTrue(st.LatestVersion)

	active := latest
	if st.Active != nil {
		active = *st.Active
	}
	superseded := st.LatestVersion != nil && !latest
	if st.Superseded != nil {
		superseded = *st.Superseded
	}

	m := Member{
		DocID:             rec.DocID,
		PublicationDate:   rec.PublicationDate,
		ReleaseTag:        rec.ReleaseTag,
		DateKey:           keying.DateKey(rec),
		IsBase:            keying.IsBase(rec.DocID),
		IsSupplement:      keying.IsSupplement(rec.DocID),
		StatusLatest:      latest,
		StatusActive:      active,
		StatusSuperseded:  superseded,
		StatusWithdrawn:   st.Withdrawn,
		StatusStabilized:  st.Stabilized,
		StatusAmended:     st.Amended,
		StatusVersionless: document.IsTrue(st.Versionless),
		SupersededDate:    st.SupersededDate,
		AliasedFrom:       rec.AliasedFrom,
	}
	if len(st.SupersededBy) > 0 {
		m.SupersededBy = append([]string(nil), st.SupersededBy...)
	}
	if rec.W3C != nil {
		m.w3cShortname = rec.W3C.Shortname
		m.w3cFamily = rec.W3C.Family
		m.w3cEdition = rec.W3C.Edition
	}
	return m
}

// smpteFamilies indexes SMPTE lineages by number. Document type is part of
// the key, so type changes under one number only show across lineages.
func smpteFamilies(groups map[string]*group) map[string]*smpteFamily {
	out := map[string]*smpteFamily{}
	for _, g := range groups {
		if g.key.Publisher != "SMPTE" || g.key.Number == "" {
			continue
		}
		f, ok := out[g.key.Number]
		if !ok {
			f = &smpteFamily{docTypes: map[string]bool{}}
			out[g.key.Number] = f
		}
		f.docTypes[g.key.Suite] = true
		if g.key.Part != "" {
			f.anyPart = true
		}
	}
	return out
}

func (b *Builder) resolve(join string, g *group, smpte map[string]*smpteFamily) *Entry {
	members := g.members
	slices.SortStableFunc(members, func(x, y Member) int {
		return cmp.Compare(x.DateKey, y.DateKey)
	})

	e := &Entry{
		Key:       join,
		Publisher: g.key.Publisher,
		Suite:     g.key.Suite,
		Number:    g.key.Number,
		Part:      g.key.Part,
		Docs:      members,
		Flags:     []Flag{},
	}
	if g.key.Publisher == "W3C" {
		e.W3CFamily = g.key.Suite
		e.W3CVersion = g.key.Number
	}

	bases := filterMembers(members, func(m Member) bool { return m.IsBase })
	flaggedAny := filterMembers(members, func(m Member) bool { return m.StatusLatest })
	flaggedBases := filterMembers(bases, func(m Member) bool { return m.StatusLatest })
	anyHeads := Heads(members, false)
	baseHeads := Heads(members, true)

	if m, ok := resolveLatest(bases, flaggedBases, baseHeads); ok {
		e.LatestBaseID = m.DocID
	}
	if m, ok := resolveLatest(members, flaggedAny, anyHeads); ok {
		e.LatestAnyID = m.DocID
		e.LatestDateKey = m.DateKey
	}

	latestActive := -1
	for i, m := range bases {
		if m.StatusActive {
			e.HasActiveBase = true
			e.LatestActiveBaseID = m.DocID
			latestActive = i
		}
		if m.StatusSuperseded {
			e.LatestSupersededBaseID = m.DocID
		}
	}
	if latestActive > 0 {
		e.PrevBaseID = bases[latestActive-1].DocID
	}

	for _, m := range members {
		e.HasWithdrawn = e.HasWithdrawn || m.StatusWithdrawn
		e.HasStabilized = e.HasStabilized || m.StatusStabilized
		switch {
		case m.IsBase:
			e.Counts.Bases++
		case m.IsSupplement:
			e.Counts.Supplements++
		default:
			e.Counts.Amendments++
		}
	}

	e.Flags = b.lineageFlags(g.key, members, bases, flaggedAny, flaggedBases, anyHeads, baseHeads, smpte)
	return e
}

func (b *Builder) lineageFlags(key keying.Key, members, bases, flaggedAny, flaggedBases, anyHeads, baseHeads []Member, smpte map[string]*smpteFamily) []Flag {
	flags := []Flag{}
	add := func(f Flag) { flags = append(flags, f) }

	if key.Publisher == "W3C" {
		if len(members) > 1 && key.Number == "" && b.norm.ShouldFlagMissingVersion(key.Suite) {
			add(Flag{Kind: FlagW3CMissingVersion})
		}
		if f, ok := b.aliasCollision(members); ok {
			add(f)
		}
	}

	if len(flaggedAny) > 1 {
		add(Flag{Kind: FlagMultipleLatest})
	}
	if len(flaggedAny) > 0 {
		maxDK := members[len(members)-1].DateKey
		for _, m := range flaggedAny {
			if m.DateKey < maxDK {
				add(Flag{Kind: FlagLatestBeforeDate})
				break
			}
		}
	}
	if len(bases) == 0 && len(members) > 0 {
		add(Flag{Kind: FlagMissingBaseForAmendment})
	}

	// A part already tells lineages under one number apart.
	if fam, ok := smpte[key.Number]; ok && key.Publisher == "SMPTE" && key.Part == "" && len(fam.docTypes) > 1 {
		add(Flag{Kind: FlagMixedSMPTEDocTypes})
		if !fam.anyPart {
			add(Flag{Kind: FlagDocTypeChangeWithoutPart})
		}
	}

	ids := make(map[string]bool, len(members))
	for _, m := range members {
		ids[m.DocID] = true
	}
	for _, m := range members {
		for _, tgt := range m.SupersededBy {
			if !ids[tgt] {
				add(Flag{Kind: FlagSupersededOutOfLineage, DocID: m.DocID, Other: tgt})
			}
		}
	}

	if f, ok := graphConflict(ScopeAny, flaggedAny, anyHeads); ok {
		add(f)
	}
	if f, ok := graphConflict(ScopeBase, flaggedBases, baseHeads); ok {
		add(f)
	}

	for _, m := range members {
		if m.AliasedFrom != "" {
			add(Flag{Kind: FlagAliasedID, DocID: m.DocID, Other: m.AliasedFrom})
		}
		if m.StatusActive && m.StatusWithdrawn {
			add(Flag{Kind: FlagContradictoryStatus, DocID: m.DocID, Detail: ActiveAndWithdrawn})
		}
		if m.StatusActive && m.StatusSuperseded {
			add(Flag{Kind: FlagContradictoryStatus, DocID: m.DocID, Detail: ActiveAndSuperseded})
		}
		if f, ok := pubDateMismatch(m); ok {
			add(f)
		}
		if key.Publisher == "W3C" && m.w3cEdition > 0 && m.ReleaseTag == "" && m.PublicationDate == "" {
			add(Flag{Kind: FlagW3CEditionWithoutDate, DocID: m.DocID})
		}
	}
	return flags
}

func graphConflict(scope string, flagged, heads []Member) (Flag, bool) {
	flagHead, ok := pickNewest(flagged)
	if !ok {
		return Flag{}, false
	}
	graphHead, ok := pickNewest(heads)
	if !ok || graphHead.DocID == flagHead.DocID {
		return Flag{}, false
	}
	return Flag{Kind: FlagLatestConflictWithGraph, Scope: scope, DocID: flagHead.DocID, Other: graphHead.DocID}, true
}

func pubDateMismatch(m Member) (Flag, bool) {
	pm := isoDateRe.FindStringSubmatch(m.PublicationDate)
	if pm == nil {
		return Flag{}, false
	}
	pubYear, err := strconv.Atoi(pm[1])
	if err != nil {
		return Flag{}, false
	}
	idYear, ok := keying.YearFromDocIDTail(m.DocID)
	if !ok || idYear == pubYear {
		return Flag{}, false
	}
	return Flag{Kind: FlagDocIDPubDateMismatch, DocID: m.DocID, DocIDYear: idYear, PubYear: pubYear}, true
}

// aliasCollision reports raw W3C shortnames that collapse into a single
// family. A known alias pair is named when one explains the collapse.
func (b *Builder) aliasCollision(members []Member) (Flag, bool) {
	var shorts []string
	seen := map[string]bool{}
	families := map[string]bool{}
	var family string
	for _, m := range members {
		if m.w3cShortname != "" && !seen[m.w3cShortname] {
			seen[m.w3cShortname] = true
			shorts = append(shorts, m.w3cShortname)
		}
		if m.w3cFamily != "" {
			families[m.w3cFamily] = true
			family = m.w3cFamily
		}
	}
	if len(shorts) < 2 || len(families) != 1 {
		return Flag{}, false
	}

	lower := map[string]bool{}
	for _, s := range shorts {
		lower[strings.ToLower(s)] = true
	}
	table := b.norm.Config().W3C
	for _, a := range slices.Sorted(maps.Keys(table)) {
		canonical := table[a]
		if lower[a] && (lower[canonical] || families[canonical]) {
			return Flag{Kind: FlagW3CAliasCollision, Detail: a, Other: canonical}, true
		}
	}
	return Flag{Kind: FlagW3CAliasCollision, Detail: strings.Join(shorts, ","), Other: family}, true
}

func (b *Builder) attachVersionlessSuccessor(e *Entry, known map[string]document.Record) {
	for _, f := range e.Flags {
		if f.Kind != FlagSupersededOutOfLineage {
			continue
		}
		target, ok := known[f.Other]
		if !ok {
			target = document.Record{DocID: f.Other}
		}
		if !isVersionless(target) {
			continue
		}
		e.ExternalSuccessor = &ExternalSuccessor{
			Reason:    ReasonExternalVersionless,
			DocID:     f.Other,
			Publisher: b.keyer.Publisher(target),
		}
	}
}

// isVersionless reports whether rec is an evergreen document. An explicit
// status.versionless wins over the built-in list.
func isVersionless(rec document.Record) bool {
	if rec.Status.Versionless != nil {
		return *rec.Status.Versionless
	}
	return whatwgHTMLRe.MatchString(rec.DocID) || whatwgHTMLHref.MatchString(rec.Href)
}
