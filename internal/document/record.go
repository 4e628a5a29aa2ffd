// SPDX-License-Identifier: Apache-2.0

package document

import "slices"

// Status carries the lifecycle flags of a published document.
// Active, Superseded, LatestVersion and Versionless are tri-state: a nil
// pointer means the source did not say, which matters for defaulting.
type Status struct {
	Active         *bool    `json:"active,omitempty" yaml:"active,omitempty"`
	Superseded     *bool    `json:"superseded,omitempty" yaml:"superseded,omitempty"`
	LatestVersion  *bool    `json:"latestVersion,omitempty" yaml:"latestVersion,omitempty"`
	Versionless    *bool    `json:"versionless,omitempty" yaml:"versionless,omitempty"`
	Withdrawn      bool     `json:"withdrawn,omitempty" yaml:"withdrawn,omitempty"`
	Stabilized     bool     `json:"stabilized,omitempty" yaml:"stabilized,omitempty"`
	Reaffirmed     bool     `json:"reaffirmed,omitempty" yaml:"reaffirmed,omitempty"`
	Amended        bool     `json:"amended,omitempty" yaml:"amended,omitempty"`
	Draft          bool     `json:"draft,omitempty" yaml:"draft,omitempty"`
	PublicCD       bool     `json:"publicCd,omitempty" yaml:"publicCd,omitempty"`
	Unknown        bool     `json:"unknown,omitempty" yaml:"unknown,omitempty"`
	State          string   `json:"state,omitempty" yaml:"state,omitempty"`
	StatusNote     string   `json:"statusNote,omitempty" yaml:"statusNote,omitempty"`
	SupersededBy   []string `json:"supersededBy,omitempty" yaml:"supersededBy,omitempty"`
	SupersededDate string   `json:"supersededDate,omitempty" yaml:"supersededDate,omitempty"`
}

// W3CInfo is the normalized view of a W3C identifier.
// Edition is zero when no edition could be inferred from the title.
type W3CInfo struct {
	Shortname string `json:"shortname,omitempty"`
	TRDate    string `json:"trDate,omitempty"`
	Family    string `json:"family,omitempty"`
	Version   string `json:"version,omitempty"`
	Edition   int    `json:"edition,omitempty"`
}

// References lists the canonical ids a document cites, as recorded in the
// snapshot by an earlier extraction run.
type References struct {
	Normative     []string `json:"normative,omitempty" yaml:"normative,omitempty"`
	Bibliographic []string `json:"bibliographic,omitempty" yaml:"bibliographic,omitempty"`
}

// Record is one entry of the document registry snapshot.
//
// Records are values: normalization returns a modified copy and never
// touches the caller's record. AliasedFrom and W3C are provenance attached
// by the normalizer and are not part of the source data.
type Record struct {
	DocID           string     `json:"docId" yaml:"docId"`
	DocType         string     `json:"docType,omitempty" yaml:"docType,omitempty"`
	Publisher       string     `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	DocTitle        string     `json:"docTitle,omitempty" yaml:"docTitle,omitempty"`
	DocLabel        string     `json:"docLabel,omitempty" yaml:"docLabel,omitempty"`
	Href            string     `json:"href,omitempty" yaml:"href,omitempty"`
	ReleaseTag      string     `json:"releaseTag,omitempty" yaml:"releaseTag,omitempty"`
	PublicationDate string     `json:"publicationDate,omitempty" yaml:"publicationDate,omitempty"`
	Status          Status     `json:"status,omitempty" yaml:"status,omitempty"`
	References      References `json:"references,omitempty" yaml:"references,omitempty"`

	AliasedFrom string   `json:"_aliasedFrom,omitempty" yaml:"-"`
	W3C         *W3CInfo `json:"_w3c,omitempty" yaml:"-"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Status = r.Status.clone()
	out.References = References{
		Normative:     slices.Clone(r.References.Normative),
		Bibliographic: slices.Clone(r.References.Bibliographic),
	}
	if r.W3C != nil {
		w := *r.W3C
		out.W3C = &w
	}
	return out
}

func (s Status) clone() Status {
	out := s
	out.Active = cloneBool(s.Active)
	out.Superseded = cloneBool(s.Superseded)
	out.LatestVersion = cloneBool(s.LatestVersion)
	out.Versionless = cloneBool(s.Versionless)
	out.SupersededBy = slices.Clone(s.SupersededBy)
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// Bool returns a pointer to v, for building tri-state status fields.
func Bool(v bool) *bool {
	return &v
}

// IsTrue reports whether a tri-state flag is explicitly true.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
