// SPDX-License-Identifier: Apache-2.0

package keying

import "regexp"

// Amendment, addendum, corrigendum and erratum shapes per publisher.
var amendmentShapes = []*regexp.Regexp{
	rx(`\.20\d{2}(?:-\d{2})?Am\d\.\d{4}(?:-\d{2})?$`),                                             // SMPTE ...2019Am1.2021
	rx(`\.(?:19|20)\d{2}(?:-\d{2})?(?:amd|cor)\d+\.(?:19|20)\d{2}(?:-\d{2})?$`),                    // ISO/IEC ...2015amd1.2018
	rx(`^NIST\.SP\.\d+-[A-Za-z0-9]+(?:ad|add|amd)\d+(?:\.(?:\d{4}(?:-\d{2})?|\d{8}))?$`),           // NIST inline addendum
	rx(`^NIST\.SP\.\d+-[A-Za-z0-9]+-(?:ad|add|amd)(?:\d+)?(?:\.(?:\d{4}(?:-\d{2})?|\d{8}))?$`),     // NIST hyphenated addendum
	rx(`\.(?:19|20)\d{2}(?:-\d{2})?ad\d+\.(?:19|20)\d{2}(?:-\d{2})?$`),                             // AES addendum
	rx(`^T-REC-[A-Za-z]\.[0-9A-Za-z.]+\.(?:\d{6}|\d{4})(?:am\d+|e\d+)\.(?:\d{6}|\d{4})$`),          // ITU-T amendment/erratum
	rx(`^R-REC-[A-Za-z]\.[0-9A-Za-z.]+-(?:a\d+|e\d+)\.(?:\d{6}|\d{4})$`),                           // ITU-R amendment/erratum
	rx(`\.(?:19|20)\d{2}e\.?\d{4}$`),                                                                // ICC errata
}

var supplementShapes = []*regexp.Regexp{
	rx(`^ATSC\.[^.]+\.[^.]+\.(?:a|annex[a-z])\.(?:\d{8}|\d{4}(?:-\d{2})?)$`),
	rx(`^EBU\.(?:R|Tech)\d+s\d+\.(?:\d{8}|\d{4}(?:-\d{2})?)$`),
}

// IsAmendment reports whether docID names an amendment, addendum,
// corrigendum or erratum rather than a base document.
func IsAmendment(docID string) bool {
	return matchesAny(amendmentShapes, docID)
}

// IsSupplement reports whether docID names an annex or supplement.
func IsSupplement(docID string) bool {
	return matchesAny(supplementShapes, docID)
}

// IsBase reports whether docID is neither an amendment nor a supplement.
func IsBase(docID string) bool {
	return !IsAmendment(docID) && !IsSupplement(docID)
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
