// SPDX-License-Identifier: Apache-2.0

package alias

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/mediastandards/lineage/internal/document"
)

// agEditionRe matches a SMPTE administrative guideline whose edition letter
// was written in lower case, followed by a date tail or the end of the id.
var agEditionRe = regexp.MustCompile(`^SMPTE\.AG(\d+)([a-z])(\.|$)`)

// Normalizer rewrites identifiers through the alias tables before keying.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	cfg       Config
	versioned map[string]struct{}
}

// NewNormalizer creates a Normalizer over cfg. Global aliases that form a
// cycle are dropped, so normalizing is idempotent.
func NewNormalizer(cfg Config) *Normalizer {
	cfg.Global = dropAliasCycles(cfg.Global, slog.Default().With(slog.String("component", "alias")))
	versioned := make(map[string]struct{}, len(cfg.W3CVersionedFamilies))
	for _, f := range cfg.W3CVersionedFamilies {
		versioned[strings.ToLower(f)] = struct{}{}
	}
	return &Normalizer{cfg: cfg, versioned: versioned}
}

// Config returns the tables the Normalizer was built with.
func (n *Normalizer) Config() Config {
	return n.cfg
}

// Normalize applies the alias rewrites and, for W3C records, attaches the
// W3C family/version view. The input is never modified.
func (n *Normalizer) Normalize(rec document.Record) document.Record {
	return n.NormalizeW3C(n.ApplyAliases(rec))
}

// ApplyAliases rewrites DocID through the exact alias table and the shape
// canonicalization rules. When the id changes, AliasedFrom records the id
// as it was before the first rewrite.
func (n *Normalizer) ApplyAliases(rec document.Record) document.Record {
	out := rec.Clone()
	if out.DocID == "" {
		return out
	}

	id := n.resolveGlobal(out.DocID)
	if loc := agEditionRe.FindStringSubmatchIndex(id); loc != nil {
		letter := id[loc[4]:loc[5]]
		id = id[:loc[4]] + strings.ToUpper(letter) + id[loc[5]:]
	}

	if id != out.DocID {
		if out.AliasedFrom == "" {
			out.AliasedFrom = out.DocID
		}
		out.DocID = id
	}
	return out
}

// resolveGlobal follows the exact alias table to a fixed point so that
// chained entries collapse in one pass. Cycles stop at the first repeat.
func (n *Normalizer) resolveGlobal(id string) string {
	seen := map[string]struct{}{id: {}}
	for {
		next, ok := n.cfg.Global[id]
		if !ok || next == id {
			return id
		}
		if _, loop := seen[next]; loop {
			return id
		}
		seen[next] = struct{}{}
		id = next
	}
}
