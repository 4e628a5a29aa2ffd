// SPDX-License-Identifier: Apache-2.0

package keying

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/document"
)

// Date tail fragments shared by most publisher shapes.
const (
	tailYM    = `(?:\d{8}|\d{4}(?:-\d{2})?)`
	tailYMD   = `(?:\d{8}|\d{4}(?:-\d{2}){1,2}|\d{4}-\d{4})`
	tailAnyYM = `(?:\d{4}(?:-\d{2}){0,2}|\d{8})`
)

var (
	nistSPFamilyHead = regexp.MustCompile(`^\d+-`)
	nistSPFamilyStop = regexp.MustCompile(`(?i)^(?:(?:pt|p|part)\s*\d+|-?(?:ad|add|amd)(?:\s*\d+)?|r\s*\d+|$)`)
	nistSPPart       = regexp.MustCompile(`(?i)(?:^|[^A-Za-z])(?:pt|p|part)\s*([0-9]+)`)
	fipsFamily       = regexp.MustCompile(`^(\d+)`)
	w3cRecPrefix     = regexp.MustCompile(`(?i)^REC-`)
	w3cHTMLToken     = regexp.MustCompile(`(?i)^html(?:5|52)$`)
	w3cTokenVersion  = regexp.MustCompile(`^(.*?)(?:[._-]?(\d+(?:\.\d+)*))$`)
	pPrefix          = regexp.MustCompile(`(?i)^p`)
)

func rx(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

func upper(s string) string { return strings.ToUpper(s) }

// DefaultGrammar returns the publisher matchers in priority order.
//
// Order matters: narrow shapes (SMPTE RP editions, AG/OM) are registered
// before the generic SMPTE shape, and the NIST alias shape before the
// generic NIST SP shape.
func DefaultGrammar(norm *alias.Normalizer) []Matcher {
	cfg := norm.Config()

	return []Matcher{
		// Edition token (v<N>) is part of the id but not of the key.
		{Name: "smpte-rp-edition", Pattern: rx(`^SMPTE\.RP(\d+)v\d+\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "SMPTE", Suite: "RP", Number: m[1]}, true
		}},
		{Name: "owasp", Pattern: rx(`^OWASP\.([A-Za-z0-9]+)\.([A-Za-z0-9-]+)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "OWASP", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "smpte-ag-om", Pattern: rx(`^SMPTE\.(AG|OM)(\d+[A-Za-z]?)(?:-([0-9]+))?(?:\.` + tailAnyYM + `)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "SMPTE", Suite: upper(m[1]), Number: m[2], Part: m[3]}, true
		}},
		{Name: "smpte-om-named", Pattern: rx(`^SMPTE\.OM\.([A-Za-z][A-Za-z0-9-]*)(?:\.` + tailYM + `)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "SMPTE", Suite: "OM", Number: m[1]}, true
		}},
		{Name: "smpte", Pattern: rx(`^SMPTE\.(OM|AG|ST|RP|EG|ER|RDD|OV|TSP)(\d+[A-Za-z]*)(?:-(\d+))?\.`), Build: func(m []string, _ document.Record) (Key, bool) {
			docType, part := upper(m[1]), m[3]
			// Overview documents seed their own lineage at part 0.
			if docType == "OV" && part == "" {
				part = "0"
			}
			return Key{Publisher: "SMPTE", Suite: docType, Number: m[2], Part: part}, true
		}},
		{Name: "omg", Pattern: rx(`^OMG\.([A-Za-z0-9]+)(?:\.[A-Za-z0-9.-]+)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "OMG", Suite: upper(m[1])}, true
		}},
		{Name: "iso-directives", Pattern: rx(`^ISO\.Dir-P(\d+)\.(\d{4}(?:-\d{2})?)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ISO/IEC", Suite: "Dir", Number: "P" + m[1]}, true
		}},
		{Name: "iso-iec", Pattern: rx(`^(ISO(?:\.IEC)?|IEC)\.(\d+)(?:-([0-9-]+))?\.`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: upper(m[1]), Number: m[2], Part: m[3]}, true
		}},
		{Name: "iesna", Pattern: rx(`^IESNA\.RP(\d+)\.(\d{4})$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "IESNA", Suite: "RP", Number: m[1]}, true
		}},
		{Name: "imfug", Pattern: rx(`^IMFUG\.BP\.([A-Za-z0-9-]+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "IMFUG", Suite: "BP", Number: m[1]}, true
		}},
		{Name: "isdcf", Pattern: rx(`^ISDCF\.([A-Za-z0-9-]+)(?:\.(\d{4}(?:-\d{2}){0,2}|\d{8}))?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ISDCF", Number: m[1]}, true
		}},
		{Name: "ti-dlp", Pattern: rx(`^TI\.DLP-([A-Za-z0-9-]+)(?:\.[A-Za-z0-9.-]+)?(?:\.` + tailYM + `)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "TI", Suite: "DLP", Number: m[1]}, true
		}},
		{Name: "unicode-tr", Pattern: rx(`^UNICODE\.STD\.TR(\d+)(?:[-.][A-Za-z0-9.-]+)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "UNICODE CONSORTIUM", Suite: "STD", Number: "TR", Part: m[1]}, true
		}},
		{Name: "unicode-std", Pattern: rx(`^UNICODE\.STD\.(\d+(?:\.\d+){1,2})$`), Build: func(_ []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "UNICODE CONSORTIUM", Suite: "STD"}, true
		}},
		{Name: "w3c", Pattern: rx(`^W3C\.([A-Za-z0-9._-]+)\.(\d{8}|\d{4}(?:-\d{2})?|LATEST)$`), Build: w3cBuilder(norm)},
		{Name: "whatwg", Pattern: rx(`^WHATWG\.([A-Za-z0-9-]+)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "WHATWG", Suite: upper(m[1])}, true
		}},
		{Name: "rfc", Pattern: rx(`^rfc(\d+)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "IETF", Suite: "RFC", Number: m[1]}, true
		}},
		{Name: "ietf", Pattern: rx(`^IETF\.([A-Za-z0-9-]+)(?:\.[A-Za-z0-9._-]+)?\.(\d{8}|\d{4}(?:-\d{2})?)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "IETF", Suite: upper(m[1])}, true
		}},
		{Name: "nab", Pattern: rx(`^NAB\.STD\.([A-Za-z0-9-]+)(?:\.` + tailYM + `)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "NAB", Suite: "STD", Number: m[1]}, true
		}},
		// FIPS revisions (140-2, 140-3) share the family number.
		{Name: "nist-fips", Pattern: rx(`^NIST\.FIPS\.(\d+(?:-\d+)?)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "NIST", Suite: "FIPS", Number: fipsFamily.FindString(m[1])}, true
		}},
		{Name: "nist-alias", Pattern: rx(`^NIST\.([A-Za-z0-9-]+)(?:\.(?:\d{8}|\d{4}(?:-\d{2}){1,2}|\d{4}-\d{4}))?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			a, ok := cfg.NIST[upper(m[1])]
			if !ok {
				return Key{}, false
			}
			return Key{Publisher: "NIST", Suite: a.Suite, Number: a.Number, Part: a.Part}, true
		}},
		{Name: "nist-sp", Pattern: rx(`^NIST\.SP\.([A-Za-z0-9-]+)(?:\.(\d{4}(?:-\d{2})?|\d{8}))?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			number, part := splitNISTSP(m[1])
			return Key{Publisher: "NIST", Suite: "SP", Number: number, Part: part}, true
		}},
		{Name: "dci-dcss", Pattern: rx(`^DCI\.([A-Za-z]+)\.(v\d+(?:\.\d+)*)\.` + tailYMD + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			if !strings.EqualFold(m[1], "DCSS") {
				return Key{}, false
			}
			return Key{Publisher: "DCI", Suite: "DCSS"}, true
		}},
		{Name: "dci-dca", Pattern: rx(`^DCI\.DCA-([A-Za-z0-9]+)\.` + tailYMD + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "DCI", Suite: "DCA", Number: upper(m[1])}, true
		}},
		{Name: "dci-memo", Pattern: rx(`^DCI\.M-([A-Za-z0-9]+)\.` + tailYMD + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "DCI", Suite: "M", Part: upper(m[1])}, true
		}},
		{Name: "dci", Pattern: rx(`^DCI\.([A-Za-z]+)-([A-Za-z0-9]+)\.` + tailYMD + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "DCI", Suite: upper(m[1]), Number: upper(m[2])}, true
		}},
		{Name: "eidr", Pattern: rx(`^EIDR\.([A-Za-z0-9-]+)\.(\d{6}|\d{4}(?:-\d{2})?)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "EIDR", Number: upper(m[1])}, true
		}},
		{Name: "icc", Pattern: rx(`^ICC\.(\d+)\.(?:\d{4})(?:e\.?\d{4})?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ICC", Number: m[1]}, true
		}},
		{Name: "amwa-aaf", Pattern: rx(`^AMWA\.(AAF)(?:\.` + tailYMD + `)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "AMWA", Suite: upper(m[1])}, true
		}},
		{Name: "amwa-as", Pattern: rx(`^AMWA\.(AS)-(\d+)(?:\.` + tailYMD + `)?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "AMWA", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "ansi-s", Pattern: rx(`^ANSI\.S(\d+)(?:\.(\d+))?(?:\.(p?\d+))?\.` + tailYM + `$`), Build: acousticsBuilder},
		{Name: "asa-s", Pattern: rx(`^ASA\.S(\d+)(?:\.(\d+))?(?:\.(p?\d+))?\.` + tailYM + `$`), Build: acousticsBuilder},
		{Name: "pima", Pattern: rx(`^PIMA\.IT(\d+)(?:\.(\d+))?\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "PIMA", Suite: "IT", Number: m[1], Part: m[2]}, true
		}},
		{Name: "ul", Pattern: rx(`^UL\.([A-Za-z0-9.-]+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "UL", Number: m[1]}, true
		}},
		{Name: "incits", Pattern: rx(`^INCITS\.([A-Za-z0-9]+)\.([A-Za-z0-9.-]+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "INCITS", Suite: m[1], Number: m[2]}, true
		}},
		{Name: "nfpa", Pattern: rx(`^NFPA\.([0-9A-Za-z.-]+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "NFPA", Number: m[1]}, true
		}},
		{Name: "aiim", Pattern: rx(`^AIIM\.([A-Za-z]+)(\d+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "AIIM", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "ashrae", Pattern: rx(`^ASHRAE\.([0-9A-Za-z.-]+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ASHRAE", Number: m[1]}, true
		}},
		{Name: "napm-it", Pattern: rx(`^NAPM\.IT(\d+)(?:\.(\d+))?\.` + tailYM + `(?:T\d+\.\d+\.\d{4})?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "NAPM", Suite: "IT", Number: m[1], Part: m[2]}, true
		}},
		{Name: "napm", Pattern: rx(`^NAPM\.(\d+)\.(\d+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "NAPM", Number: m[1], Part: m[2]}, true
		}},
		{Name: "aim", Pattern: rx(`^AIM\.([A-Za-z]+)-?(\d+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "AIM", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "arib", Pattern: rx(`^ARIB\.([A-Za-z]+)-([A-Za-z]\d+(?:\.[A-Za-z0-9]+)?)\.v\d+(?:\.\d+)*\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ARIB", Suite: upper(m[1]), Number: upper(m[2])}, true
		}},
		{Name: "itu-t", Pattern: rx(`^T-REC-([A-Za-z])\.([0-9A-Za-z.]+?)\.(\d{6}|\d{4})(?:(am\d+|e\d+)\.(\d{6}|\d{4}))?$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ITU-T", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "itu-r", Pattern: rx(`^R-REC-([A-Za-z]{1,3})\.([0-9A-Za-z.]+?)(?:-(a\d+|e\d+|[0-9]+))?\.(\d{6}|\d{4})$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ITU-R", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "atsc", Pattern: rx(`^ATSC\.([A-Za-z0-9-]+)\.([A-Za-z0-9-]+)\.(?:(?:a|annex[a-z])\.)?` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ATSC", Suite: upper(m[1]), Number: upper(m[2])}, true
		}},
		{Name: "tiff", Pattern: rx(`^TIFF\.r\d+(?:\.` + tailYM + `)?$`), Build: func(_ []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "Aldus Corp/Adobe", Suite: "TIFF"}, true
		}},
		{Name: "ieee", Pattern: rx(`^IEEE\.(?:STD)?([0-9]+(?:\.[0-9]+)?)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "IEEE", Suite: "STD", Number: m[1]}, true
		}},
		{Name: "aes", Pattern: rx(`^AES\.(\d+)(?:-([0-9]+))?\.` + tailYM + `(?:ad\d+\.` + tailYM + `)?$`), Build: aesBuilder},
		{Name: "aes-compact", Pattern: rx(`^aes(\d+)(?:-([0-9]+))?\.` + tailYM + `(?:ad\d+\.` + tailYM + `)?$`), Build: aesBuilder},
		{Name: "aes-report", Pattern: rx(`^AES[-.]R(\d+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "AES", Suite: "R", Number: m[1]}, true
		}},
		{Name: "ampas", Pattern: rx(`^AMPAS\.S\.(\d{4})-(\d{3})$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "AMPAS", Suite: "S", Number: m[1], Part: m[2]}, true
		}},
		{Name: "cea", Pattern: rx(`^CEA\.(\d+)\.(\d{4}(?:-\d{2})?)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "CEA", Number: m[1]}, true
		}},
		{Name: "cen", Pattern: rx(`^CEN\.(EN|TR)\.([A-Za-z0-9-]+)\.(\d{4}(?:-\d{2})?)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "CEN", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "ebu", Pattern: rx(`^EBU\.(R|Tech)(\d+)(?:s\d*)?\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "EBU", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "etsi", Pattern: rx(`^ETSI\.([A-Za-z]+)-([0-9-]+)\.(\d{4}(?:-\d{2})?)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "ETSI", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "cie", Pattern: rx(`^CIE\.(\d{3})\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "CIE", Number: m[1]}, true
		}},
		{Name: "cta", Pattern: rx(`^CTA\.(\d+)-[A-Za-z]\.(\d{4})$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "CTA", Number: m[1]}, true
		}},
		{Name: "fiaf", Pattern: rx(`^FIAF\.([A-Za-z]+)\.([A-Za-z0-9.-]+)\.` + tailYM + `$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "FIAF", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "dma", Pattern: rx(`^DMA\.(TR)\.([0-9.]+)$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "U.S. DEFENSE MAPPING AGENCY", Suite: upper(m[1]), Number: m[2]}, true
		}},
		{Name: "dpp", Pattern: rx(`^DPP\.(\d{3})$`), Build: func(m []string, _ document.Record) (Key, bool) {
			return Key{Publisher: "DPP", Number: m[1]}, true
		}},
	}
}

// w3cBuilder keys W3C ids by family and version. A family already attached
// by the normalizer wins over re-deriving one from the raw shortname.
func w3cBuilder(norm *alias.Normalizer) func([]string, document.Record) (Key, bool) {
	return func(m []string, rec document.Record) (Key, bool) {
		info := rec.W3C
		if info == nil || info.Family == "" {
			info = norm.NormalizeW3C(document.Record{DocID: m[0]}).W3C
		}
		if info != nil && info.Family != "" {
			number := info.Version
			if upper(info.Family) == "HTML" {
				number = ""
			}
			return Key{Publisher: "W3C", Suite: info.Family, Number: number}, true
		}

		token := w3cRecPrefix.ReplaceAllString(m[1], "")
		if w3cHTMLToken.MatchString(token) {
			return Key{Publisher: "W3C", Suite: "HTML"}, true
		}
		if vm := w3cTokenVersion.FindStringSubmatch(token); vm != nil && vm[2] != "" {
			return Key{Publisher: "W3C", Suite: vm[1], Number: vm[2]}, true
		}
		return Key{Publisher: "W3C", Suite: token}, true
	}
}

func acousticsBuilder(m []string, _ document.Record) (Key, bool) {
	return Key{
		Publisher: "ASA",
		Suite:     "S" + m[1],
		Number:    m[2],
		Part:      pPrefix.ReplaceAllString(m[3], ""),
	}, true
}

func aesBuilder(m []string, _ document.Record) (Key, bool) {
	return Key{Publisher: "AES", Number: m[1], Part: m[2]}, true
}

// splitNISTSP separates a NIST SP tail such as 800-57p1r2007 into the
// family (800-57) and an optional part (1). Revision and addendum tokens
// end the family but are not part of the key.
func splitNISTSP(tail string) (number, part string) {
	head := nistSPFamilyHead.FindString(tail)
	if head == "" {
		return tail, ""
	}
	// Shortest alphanumeric family after the "<digits>-" head that is
	// followed by a part, addendum or revision token or the end of input.
	for end := len(head) + 1; end <= len(tail); end++ {
		if !isAlnum(tail[end-1]) {
			break
		}
		if !nistSPFamilyStop.MatchString(tail[end:]) {
			continue
		}
		family := tail[:end]
		if pm := nistSPPart.FindStringSubmatch(tail[end:]); pm != nil {
			if n, err := strconv.Atoi(pm[1]); err == nil {
				part = strconv.Itoa(n)
			}
		}
		return family, part
	}
	return tail, ""
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
