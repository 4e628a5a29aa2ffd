// SPDX-License-Identifier: Apache-2.0

package lineage

// Member is the per-document summary kept in a lineage. It is derived from
// the normalized record and never aliases the caller's data.
type Member struct {
	DocID             string   `json:"docId"`
	PublicationDate   string   `json:"publicationDate,omitempty"`
	ReleaseTag        string   `json:"releaseTag,omitempty"`
	DateKey           string   `json:"dateKey"`
	IsBase            bool     `json:"isBase"`
	IsSupplement      bool     `json:"isSupplement,omitempty"`
	StatusLatest      bool     `json:"statusLatest"`
	StatusActive      bool     `json:"statusActive"`
	StatusSuperseded  bool     `json:"statusSuperseded"`
	StatusWithdrawn   bool     `json:"statusWithdrawn"`
	StatusStabilized  bool     `json:"statusStabilized"`
	StatusAmended     bool     `json:"statusAmended"`
	StatusVersionless bool     `json:"statusVersionless"`
	SupersededBy      []string `json:"supersededBy,omitempty"`
	SupersededDate    string   `json:"supersededDate,omitempty"`
	AliasedFrom       string   `json:"aliasedFrom,omitempty"`

	w3cShortname string
	w3cFamily    string
	w3cEdition   int
}

// Counts breaks a lineage down by member class.
type Counts struct {
	Bases       int `json:"bases"`
	Amendments  int `json:"amendments"`
	Supplements int `json:"supplements"`
}

// ExternalSuccessor points at a versionless document outside the lineage
// that supersedes one of its members.
type ExternalSuccessor struct {
	Reason    string `json:"reason"`
	DocID     string `json:"docId"`
	Publisher string `json:"publisher"`
}

// Entry is one lineage: every keyed document sharing a structured key,
// ordered by date key, with the resolved latest pointers and the advisory
// flags raised while resolving them.
type Entry struct {
	Key        string `json:"key"`
	Publisher  string `json:"publisher"`
	Suite      string `json:"suite,omitempty"`
	Number     string `json:"number,omitempty"`
	Part       string `json:"part,omitempty"`
	W3CFamily  string `json:"w3cFamily,omitempty"`
	W3CVersion string `json:"w3cVersion,omitempty"`

	Docs []Member `json:"docs"`

	LatestBaseID           string `json:"latestBaseId,omitempty"`
	LatestAnyID            string `json:"latestAnyId,omitempty"`
	LatestDateKey          string `json:"latestDateKey,omitempty"`
	HasActiveBase          bool   `json:"hasActiveBase"`
	HasWithdrawn           bool   `json:"hasWithdrawn"`
	HasStabilized          bool   `json:"hasStabilized"`
	LatestActiveBaseID     string `json:"latestActiveBaseId,omitempty"`
	LatestSupersededBaseID string `json:"latestSupersededBaseId,omitempty"`
	PrevBaseID             string `json:"prevBaseId,omitempty"`

	Flags             []Flag             `json:"flagInconsistencies"`
	Counts            Counts             `json:"counts"`
	ExternalSuccessor *ExternalSuccessor `json:"externalSuccessor,omitempty"`
}

// Skip reasons.
const (
	ReasonFiltered = "FILTERED"
	ReasonUnkeyed  = "UNKEYED"
	ReasonUnknown  = "UNKNOWN"
)

// SkippedDoc records a document that did not enter any lineage.
type SkippedDoc struct {
	DocID      string `json:"docId"`
	Publisher  string `json:"publisher"`
	Reason     string `json:"reason"`
	Rule       string `json:"rule"`
	RuleDetail string `json:"ruleDetail"`
	Category   string `json:"category"`
}

// PublisherCount is the number of snapshot documents per publisher.
type PublisherCount struct {
	Publisher string `json:"publisher"`
	Count     int    `json:"count"`
}

// FlagExample ties one raw flag to the lineage that raised it.
type FlagExample struct {
	Lineage string `json:"lineage"`
	Flag    string `json:"flag"`
}

// FlagTypeSummary counts one flag type across the report.
type FlagTypeSummary struct {
	Count    int           `json:"count"`
	Examples []FlagExample `json:"examples"`
}

// FlagSummary aggregates flags by type prefix.
type FlagSummary struct {
	TotalFlags int                         `json:"totalFlags"`
	ByType     map[string]*FlagTypeSummary `json:"byType"`
}

// Report is the result of one Build run.
type Report struct {
	Total   int `json:"total"`
	Kept    int `json:"kept"`
	Skipped int `json:"skipped"`

	PublisherCounts []PublisherCount `json:"publisherCounts"`

	// Lineages maps key joins to entries; LineageOrder lists the same keys
	// in report order.
	Lineages     map[string]*Entry `json:"lineages"`
	LineageOrder []string          `json:"lineageOrder"`

	FlagSummary     FlagSummary    `json:"flagSummary"`
	SkippedDocs     []SkippedDoc   `json:"skippedDocs"`
	SummaryByReason map[string]int `json:"summaryByReason"`

	byDoc map[string]string
}

// Entries returns the lineages in report order.
func (r *Report) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.LineageOrder))
	for _, k := range r.LineageOrder {
		out = append(out, r.Lineages[k])
	}
	return out
}

// Lookup returns the lineage with the given key join.
func (r *Report) Lookup(key string) (*Entry, bool) {
	e, ok := r.Lineages[key]
	return e, ok
}
