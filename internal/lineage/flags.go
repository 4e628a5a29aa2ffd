// SPDX-License-Identifier: Apache-2.0

package lineage

import (
	"fmt"
	"strings"
)

// FlagKind enumerates lineage inconsistency checks.
type FlagKind int

const (
	FlagW3CMissingVersion FlagKind = iota + 1
	FlagW3CAliasCollision
	FlagMultipleLatest
	FlagLatestBeforeDate
	FlagMissingBaseForAmendment
	FlagMixedSMPTEDocTypes
	FlagDocTypeChangeWithoutPart
	FlagSupersededOutOfLineage
	FlagLatestConflictWithGraph
	FlagAliasedID
	FlagContradictoryStatus
	FlagDocIDPubDateMismatch
	FlagW3CEditionWithoutDate
)

var flagKindNames = map[FlagKind]string{
	FlagW3CMissingVersion:        "W3C_MISSING_VERSION",
	FlagW3CAliasCollision:        "W3C_ALIAS_COLLISION",
	FlagMultipleLatest:           "MULTIPLE_LATEST_FLAGS",
	FlagLatestBeforeDate:         "LATEST_FLAG_BEFORE_DATE",
	FlagMissingBaseForAmendment:  "MISSING_BASE_FOR_AMENDMENT",
	FlagMixedSMPTEDocTypes:       "MIXED_SMPTE_DOCTYPES",
	FlagDocTypeChangeWithoutPart: "DOC_TYPE_CHANGE_WITHOUT_PART",
	FlagSupersededOutOfLineage:   "SUPERSEDED_BY_OUT_OF_LINEAGE",
	FlagLatestConflictWithGraph:  "LATEST_FLAG_CONFLICT_WITH_GRAPH",
	FlagAliasedID:                "ALIASED_ID",
	FlagContradictoryStatus:      "CONTRADICTORY_STATUS_FLAGS",
	FlagDocIDPubDateMismatch:     "DOCID_PUBDATE_MISMATCH",
	FlagW3CEditionWithoutDate:    "W3C_EDITION_WITHOUT_DATE",
}

// String returns the report prefix of the kind.
func (k FlagKind) String() string {
	if name, ok := flagKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FlagKind(%d)", int(k))
}

// Contradictory status combinations.
const (
	ActiveAndWithdrawn  = "ACTIVE_AND_WITHDRAWN"
	ActiveAndSuperseded = "ACTIVE_AND_SUPERSEDED"
)

// Graph conflict scopes.
const (
	ScopeAny  = "any"
	ScopeBase = "base"
)

// Flag is one advisory inconsistency found in a lineage. Which payload
// fields are set depends on Kind. Flags are rendered to their namespaced
// string form only when the report is serialized.
type Flag struct {
	Kind FlagKind

	// DocID is the document the flag is about.
	DocID string
	// Other is the second party: edge target, alias source, competing
	// graph head or collision target family.
	Other string
	// Scope is ScopeAny or ScopeBase for graph conflicts.
	Scope string
	// Detail is the contradictory combination or the collapsing shortnames.
	Detail string

	DocIDYear int
	PubYear   int
}

// Type is the namespace prefix used to group flags in the summary.
func (f Flag) Type() string {
	return f.Kind.String()
}

// String renders the flag the way it appears in reports, e.g.
// LATEST_FLAG_CONFLICT_WITH_GRAPH:base:<flagged><><head>.
func (f Flag) String() string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	switch f.Kind {
	case FlagW3CAliasCollision:
		fmt.Fprintf(&b, ":%s=>%s", f.Detail, f.Other)
	case FlagSupersededOutOfLineage:
		fmt.Fprintf(&b, ":%s->%s", f.DocID, f.Other)
	case FlagLatestConflictWithGraph:
		fmt.Fprintf(&b, ":%s:%s<>%s", f.Scope, f.DocID, f.Other)
	case FlagAliasedID:
		fmt.Fprintf(&b, ":%s->%s", f.Other, f.DocID)
	case FlagContradictoryStatus:
		fmt.Fprintf(&b, ":%s:%s", f.DocID, f.Detail)
	case FlagDocIDPubDateMismatch:
		fmt.Fprintf(&b, ":%s:docIdYear=%d,pubYear=%d", f.DocID, f.DocIDYear, f.PubYear)
	case FlagW3CEditionWithoutDate:
		fmt.Fprintf(&b, ":%s", f.DocID)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler so flags serialize as
// plain strings in JSON and YAML reports.
func (f Flag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// HasFlag reports whether flags contains a flag of kind k.
func HasFlag(flags []Flag, k FlagKind) bool {
	for _, f := range flags {
		if f.Kind == k {
			return true
		}
	}
	return false
}
