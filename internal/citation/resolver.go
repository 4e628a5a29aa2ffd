// SPDX-License-Identifier: Apache-2.0

package citation

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Map sources reported with a resolution.
const (
	SourcePlain = "plain"
	SourceRegex = "regex"
	SourceHref  = "href"

	// SourceReplay marks ids taken verbatim from a snapshot's reference
	// lists rather than resolved from citation text.
	SourceReplay = "replay"
)

// Result is a resolved citation together with how it was resolved.
type Result struct {
	RefID     string `json:"refId"`
	MapSource string `json:"mapSource"`
	MapDetail string `json:"mapDetail"`
}

// Grammar resolves one citation shape. text has already been reduced to a
// single segment and NFKC-folded; href is passed through untouched.
type Grammar struct {
	Name    string
	Resolve func(text, href string) (Result, bool)
}

// Resolver maps citation text and links to canonical document ids.
type Resolver struct {
	source   *TableSource
	grammars []Grammar
}

// NewResolver creates a Resolver that consults source before the built-in
// grammars. source may be nil.
func NewResolver(source *TableSource) *Resolver {
	return &Resolver{source: source, grammars: DefaultGrammars()}
}

// Resolve returns the canonical id for a citation. ok is false when nothing
// matched; callers record such citations as bad references.
func (r *Resolver) Resolve(text, href string) (Result, bool) {
	if r.source != nil {
		if res, ok := r.source.Table().Lookup(text); ok {
			return res, true
		}
	}
	segment := norm.NFKC.String(preferredSegment(text))
	for _, g := range r.grammars {
		if res, ok := g.Resolve(segment, href); ok {
			return res, true
		}
	}
	return Result{}, false
}

// ParseRefID is Resolve without diagnostics.
func (r *Resolver) ParseRefID(text, href string) (string, bool) {
	res, ok := r.Resolve(text, href)
	return res.RefID, ok
}

// RegisteredGrammars returns the grammar names in evaluation order.
func (r *Resolver) RegisteredGrammars() []string {
	names := make([]string, len(r.grammars))
	for i, g := range r.grammars {
		names[i] = g.Name
	}
	return names
}

var isoSegmentRe = regexp.MustCompile(`ISO/IEC|ISO`)

// preferredSegment splits "A | B" citations and keeps the ISO segment when
// there is one, else the first.
func preferredSegment(text string) string {
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for _, p := range parts {
		if isoSegmentRe.MatchString(p) {
			return p
		}
	}
	return parts[0]
}

var (
	w3cDatedRecHref  = regexp.MustCompile(`(?i)w3\.org/TR/\d{4}/REC-([^/]+)-(\d{8})/`)
	w3cShortnameHref = regexp.MustCompile(`(?i)w3\.org/TR/([^/]+)/?$`)
	smpteCiteRe      = regexp.MustCompile(`(?i)SMPTE\s+(ST|RP|RDD|EG|AG|OV)[\s\x{00A0}\x{2010}-\x{2015}-]+(\d+[A-Za-z]?)(?:-(\d+))?(?::\s*(\d{4})(?:-(\d{2}))?)?`)
	rfcCiteRe        = regexp.MustCompile(`(?i)RFC\s*(\d+)`)
	nistDOIHref      = regexp.MustCompile(`(?i)10\.6028/NIST\.(.+)`)
	nistFIPSCiteRe   = regexp.MustCompile(`(?i)NIST\s+FIPS\s+(?:PUB\s+)?(\d+)(-\d+)?`)
	fipsHostHref     = regexp.MustCompile(`(?i)csrc\.nist\.gov/.+/fips/\d+`)
	fipsPathHref     = regexp.MustCompile(`(?i)fips/(\d+)(?:/(\d+))?`)
	isoIECCiteRe     = regexp.MustCompile(`ISO/IEC\s+([\d-]+)(:[\dA-Za-z+:.-]+)?`)
	isoCiteRe        = regexp.MustCompile(`ISO\s+([\d-]+)(:[\dA-Za-z+:.-]+)?`)
	iecCiteRe        = regexp.MustCompile(`IEC\s+([\d-]+)(:[\dA-Za-z+:.-]+)?`)
	fourDigitsRe     = regexp.MustCompile(`\d{4}`)
)

// DefaultGrammars returns the citation grammars in priority order.
func DefaultGrammars() []Grammar {
	return []Grammar{
		{Name: "w3c:dated-REC", Resolve: func(_, href string) (Result, bool) {
			m := w3cDatedRecHref.FindStringSubmatch(href)
			if m == nil {
				return Result{}, false
			}
			return Result{RefID: "W3C." + m[1] + "." + m[2], MapSource: SourceHref, MapDetail: "w3c:dated-REC"}, true
		}},
		{Name: "w3c:shortname", Resolve: func(_, href string) (Result, bool) {
			m := w3cShortnameHref.FindStringSubmatch(href)
			if m == nil {
				return Result{}, false
			}
			return Result{RefID: "W3C." + m[1], MapSource: SourceHref, MapDetail: "w3c:shortname"}, true
		}},
		{Name: "smpte-designator", Resolve: smpteDesignator},
		{Name: "rfc-number", Resolve: func(text, _ string) (Result, bool) {
			m := rfcCiteRe.FindStringSubmatch(text)
			if m == nil {
				return Result{}, false
			}
			return Result{RefID: "RFC" + m[1], MapSource: SourceRegex, MapDetail: "rfc-number"}, true
		}},
		{Name: "nist-doi", Resolve: func(_, href string) (Result, bool) {
			m := nistDOIHref.FindStringSubmatch(href)
			if m == nil {
				return Result{}, false
			}
			return Result{RefID: "NIST." + m[1], MapSource: SourceHref, MapDetail: "nist-doi"}, true
		}},
		{Name: "nist-fips", Resolve: func(text, _ string) (Result, bool) {
			m := nistFIPSCiteRe.FindStringSubmatch(text)
			if m == nil {
				return Result{}, false
			}
			return Result{RefID: "NIST.FIPS." + m[1] + m[2], MapSource: SourceRegex, MapDetail: "nist-fips"}, true
		}},
		{Name: "nist-fips-path", Resolve: func(_, href string) (Result, bool) {
			if !fipsHostHref.MatchString(href) {
				return Result{}, false
			}
			m := fipsPathHref.FindStringSubmatch(href)
			if m == nil {
				return Result{}, false
			}
			id := "NIST.FIPS." + m[1]
			if m[2] != "" {
				id += "-" + m[2]
			}
			return Result{RefID: id, MapSource: SourceHref, MapDetail: "nist-fips-path"}, true
		}},
		{Name: "iso-iec", Resolve: isoDesignator(isoIECCiteRe, "ISO")},
		{Name: "iso", Resolve: isoDesignator(isoCiteRe, "ISO")},
		{Name: "iec", Resolve: isoDesignator(iecCiteRe, "IEC")},
	}
}

// smpteDesignator reads "SMPTE ST 2067-2:2020" style citations. A month is
// kept only for 2023 and later, when SMPTE ids started carrying one.
func smpteDesignator(text, _ string) (Result, bool) {
	m := smpteCiteRe.FindStringSubmatch(text)
	if m == nil {
		return Result{}, false
	}
	docType, num, part, year, month := strings.ToUpper(m[1]), strings.ToUpper(m[2]), m[3], m[4], m[5]

	id := "SMPTE." + docType + num
	if part != "" {
		id += "-" + part
	}
	if year != "" {
		id += "." + year
		if y, err := strconv.Atoi(year); err == nil && y >= 2023 && month != "" {
			id += "-" + month
		}
	}
	return Result{RefID: id, MapSource: SourceRegex, MapDetail: "smpte-designator"}, true
}

// isoDesignator reads "ISO/IEC 14496-12:2015" style citations. When the
// suffix carries several years (a revision with an amendment date) the
// latest one wins.
func isoDesignator(re *regexp.Regexp, prefix string) func(text, href string) (Result, bool) {
	return func(text, _ string) (Result, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return Result{}, false
		}
		id := prefix + "." + m[1]
		best := 0
		for _, y := range fourDigitsRe.FindAllString(m[2], -1) {
			if n, err := strconv.Atoi(y); err == nil && n > best {
				best = n
			}
		}
		if best > 0 {
			id += "." + strconv.Itoa(best)
		}
		return Result{RefID: id, MapSource: SourceRegex, MapDetail: "iso|iec designator"}, true
	}
}
