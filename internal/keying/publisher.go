// SPDX-License-Identifier: Apache-2.0

package keying

import (
	"regexp"
	"strings"

	"github.com/mediastandards/lineage/internal/document"
)

// UnknownPublisher is reported when no publisher can be inferred.
const UnknownPublisher = "UNKNOWN"

var (
	bareRFCRe      = regexp.MustCompile(`(?i)^RFC\d+$`)
	idPublisherRe  = regexp.MustCompile(`^([A-Za-z]{2,})\.`)
	ansiPrefixTrim = "ANSI/"
)

// Publisher infers the upper-case publisher of rec: the explicit publisher
// field (without an ANSI/ prefix), else the keyed publisher, else the
// leading token of the docId.
func (k *Keyer) Publisher(rec document.Record) string {
	if p := strings.TrimSpace(rec.Publisher); p != "" {
		return strings.TrimPrefix(strings.ToUpper(p), ansiPrefixTrim)
	}
	if rec.DocID == "" {
		return UnknownPublisher
	}
	if key, ok := k.Key(rec.DocID, rec); ok && key.Publisher != "" {
		return strings.ToUpper(key.Publisher)
	}
	if bareRFCRe.MatchString(rec.DocID) {
		return "IETF"
	}
	if m := idPublisherRe.FindStringSubmatch(rec.DocID); m != nil {
		return strings.ToUpper(m[1])
	}
	return UnknownPublisher
}
