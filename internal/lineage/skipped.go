// SPDX-License-Identifier: Apache-2.0

package lineage

import (
	"strings"

	"github.com/mediastandards/lineage/internal/document"
)

// Document types that are published but never revised as a lineage.
var nonLineageDocTypes = map[string]bool{
	"Journal Article":    true,
	"Magazine Article":   true,
	"Technical Journal":  true,
	"Book":               true,
	"Patent":             true,
	"White Paper":        true,
	"Registry":           true,
	"Technical Bulletin": true,
	"Technical Note":     true,
	"Procedure":          true,
	"Notation":           true,
	"Manual":             true,
	"Study Group Report": true,
	"Dissertation":       true,
	"FAQ":                true,
	"Style Guide":        true,
	"Template":           true,
}

// filterRule decides whether rec is kept out of lineages by policy before
// keying is attempted. ok is false when the record passes.
func filterRule(rec document.Record) (detail, category string, ok bool) {
	if rec.DocID == "" {
		return "docId=empty", "policy", true
	}
	if dt := strings.TrimSpace(rec.DocType); dt != "" && nonLineageDocTypes[dt] {
		return "docType=" + dt, "docType", true
	}
	if rec.Status.Draft {
		return "status.draft=true", "policy", true
	}
	if strings.EqualFold(rec.Status.State, "draft") {
		return "status.state=draft", "policy", true
	}
	return "", "", false
}

func filteredDoc(docID, publisher, detail, category string) SkippedDoc {
	return SkippedDoc{
		DocID:      docID,
		Publisher:  publisher,
		Reason:     ReasonFiltered,
		Rule:       ReasonFiltered,
		RuleDetail: detail,
		Category:   category,
	}
}

func unkeyedDoc(docID, publisher string) SkippedDoc {
	return SkippedDoc{
		DocID:      docID,
		Publisher:  publisher,
		Reason:     ReasonUnkeyed,
		Rule:       ReasonUnkeyed,
		RuleDetail: "noRegexMatch",
		Category:   "standard",
	}
}

func summarizeSkipped(skipped []SkippedDoc) map[string]int {
	out := map[string]int{ReasonFiltered: 0, ReasonUnkeyed: 0, ReasonUnknown: 0}
	for _, s := range skipped {
		if _, ok := out[s.Reason]; ok {
			out[s.Reason]++
		} else {
			out[ReasonUnknown]++
		}
	}
	return out
}
