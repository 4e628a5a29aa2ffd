// SPDX-License-Identifier: Apache-2.0

package alias

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mediastandards/lineage/internal/document"
)

var (
	w3cHrefRe  = regexp.MustCompile(`(?i)^https?://www\.w3\.org/TR/([^/]+)-(\d{8})/?$`)
	w3cDocIDRe = regexp.MustCompile(`(?i)^W3C\.([A-Za-z0-9._-]+)\.(\d{8}|\d{4}(?:-\d{2})?)$`)
	w3cPrefix  = regexp.MustCompile(`(?i)^W3C\.`)
	trDateRe   = regexp.MustCompile(`\d{8}`)

	// Family/version split tiers, tried in order. The c14n two-digit form
	// (c14n11 = 1.1) is checked before the bare trailing digit, which would
	// otherwise claim it.
	c14nDottedRe  = regexp.MustCompile(`^(.*?c14n)(\d(?:\.\d+)*)$`)
	sepVersionRe  = regexp.MustCompile(`^(.*?)(?:[._-](\d+(?:\.\d+)*))$`)
	bareDigitRe   = regexp.MustCompile(`^(.*?)(\d)$`)
	c14nTwoDigit  = regexp.MustCompile(`^(.*?c14n)(\d{2})$`)
	trailingSepRe = regexp.MustCompile(`[._-]$`)
	c14nSepRe     = regexp.MustCompile(`[._-]+c14n$`)

	htmlShortRe        = regexp.MustCompile(`(?i)^(?:rec-)?html(?:5|52)$`)
	versionHintRe      = regexp.MustCompile(`(?i)[a-z]\d|\d[a-z]|[._-]\d`)
	versionCueRe       = regexp.MustCompile(`(?i)\b(?:Version|Level)\b`)
	explicitVersionRe  = regexp.MustCompile(`(?i)\b(?:Version|Level)\s*(\d+(?:\.\d+)*)\b`)
	dottedNumberRe     = regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)*)\b`)
	smallIntRe         = regexp.MustCompile(`\b(\d{1,2})\b`)
	specCueRe          = regexp.MustCompile(`(?i)\b(?:Version|Level|Spec(?:ification)?|Rec(?:ommendation)?)\b`)
	ordinalEditionRe   = regexp.MustCompile(`(?i)\b(First|Second|Third|Fourth|Fifth|Sixth|Seventh|Eighth|Ninth|Tenth)\s+Edition\b`)
	numericEditionRe   = regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\s+Edition\b`)
	ordinalEditionNums = map[string]int{
		"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
		"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	}
)

// IsW3C reports whether rec is handled by the W3C sub-normalizer.
func IsW3C(rec document.Record) bool {
	return rec.Publisher == "W3C" || w3cPrefix.MatchString(rec.DocID)
}

// NormalizeW3C attaches the W3C view (shortname, TR date, family, version,
// edition) to a copy of rec. Non-W3C records are returned unchanged.
func (n *Normalizer) NormalizeW3C(rec document.Record) document.Record {
	out := rec.Clone()
	if out.DocID == "" || !IsW3C(out) {
		return out
	}

	var shortname, trDate string
	if s, d, ok := W3CFromHref(out.Href); ok {
		shortname, trDate = s, d
	}
	if s, d, ok := W3CFromDocID(out.DocID); ok {
		if shortname == "" {
			shortname = s
		}
		if trDate == "" {
			trDate = d
		}
	}

	family, version := n.SplitFamilyVersion(shortname)
	if shortname != "" && htmlShortRe.MatchString(shortname) {
		family, version = "HTML", ""
	}
	if version == "" && n.versionInferenceAllowed(shortname, out) {
		version = inferVersion(out.DocTitle, out.DocLabel)
	}

	out.W3C = &document.W3CInfo{
		Shortname: shortname,
		TRDate:    trDate,
		Family:    family,
		Version:   version,
		Edition:   inferEdition(out.DocTitle),
	}
	return out
}

// W3CFromHref extracts the shortname and TR date from a dated TR URL.
func W3CFromHref(href string) (shortname, trDate string, ok bool) {
	m := w3cHrefRe.FindStringSubmatch(href)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// W3CFromDocID extracts the shortname from a W3C docId. trDate is only set
// when the tail is a full 8-digit date.
func W3CFromDocID(docID string) (shortname, trDate string, ok bool) {
	m := w3cDocIDRe.FindStringSubmatch(docID)
	if m == nil {
		return "", "", false
	}
	if trDateRe.MatchString(m[2]) {
		trDate = m[2]
	}
	return m[1], trDate, true
}

// SplitFamilyVersion splits a W3C shortname into family and trailing version
// after applying the shortname alias table. Version is empty when none is
// found structurally.
func (n *Normalizer) SplitFamilyVersion(shortname string) (family, version string) {
	family, version = n.splitFamilyVersion(shortname)
	// xml-c14n and xmlc14n are one family.
	return c14nSepRe.ReplaceAllString(family, "c14n"), version
}

func (n *Normalizer) splitFamilyVersion(shortname string) (family, version string) {
	if shortname == "" {
		return "", ""
	}
	sn := strings.ToLower(shortname)
	canonical := sn
	if a, ok := n.cfg.W3C[sn]; ok {
		canonical = a
	}

	if m := c14nDottedRe.FindStringSubmatch(canonical); m != nil && m[1] != "" && m[2] != "" {
		return m[1], m[2]
	}
	if m := sepVersionRe.FindStringSubmatch(canonical); m != nil && m[1] != "" && m[2] != "" {
		return m[1], m[2]
	}
	if m := c14nTwoDigit.FindStringSubmatch(canonical); m != nil {
		return m[1], m[2][:1] + "." + m[2][1:]
	}
	if m := bareDigitRe.FindStringSubmatch(canonical); m != nil && m[1] != "" {
		return trailingSepRe.ReplaceAllString(m[1], ""), m[2]
	}
	return canonical, ""
}

// ShouldFlagMissingVersion reports whether an unversioned W3C family is
// expected to carry a version, either because its shortname looks versioned
// or because it is a known versioned family.
func (n *Normalizer) ShouldFlagMissingVersion(shortname string) bool {
	if shortname == "" {
		return false
	}
	sn := strings.ToLower(shortname)
	if versionHintRe.MatchString(sn) {
		return true
	}
	_, ok := n.versioned[sn]
	return ok
}

func (n *Normalizer) versionInferenceAllowed(shortname string, rec document.Record) bool {
	if versionHintRe.MatchString(shortname) {
		return true
	}
	if _, ok := n.versioned[strings.ToLower(shortname)]; ok {
		return true
	}
	return versionCueRe.MatchString(rec.DocTitle) || versionCueRe.MatchString(rec.DocLabel)
}

// inferVersion reads a version from title or label text. A bare one or two
// digit number is only accepted next to a Version/Level/Spec/Rec cue, so a
// four-digit year never qualifies.
func inferVersion(title, label string) string {
	if v := firstSubmatch(explicitVersionRe, title, label); v != "" {
		return v
	}
	if v := firstSubmatch(dottedNumberRe, title, label); v != "" {
		return v
	}
	v := firstSubmatch(smallIntRe, title, label)
	if v != "" && (specCueRe.MatchString(title) || specCueRe.MatchString(label)) {
		return v
	}
	return ""
}

func inferEdition(title string) int {
	if m := ordinalEditionRe.FindStringSubmatch(title); m != nil {
		return ordinalEditionNums[strings.ToLower(m[1])]
	}
	if m := numericEditionRe.FindStringSubmatch(title); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n
		}
	}
	return 0
}

func firstSubmatch(re *regexp.Regexp, texts ...string) string {
	for _, t := range texts {
		if m := re.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	return ""
}
