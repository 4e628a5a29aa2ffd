// SPDX-License-Identifier: Apache-2.0

package keying

import (
	"regexp"
	"strconv"

	"github.com/mediastandards/lineage/internal/document"
)

// EpochFloor is the date key of a document with no usable date signal.
// It sorts before every real date.
const EpochFloor = "00000000"

var (
	releaseTagRe = regexp.MustCompile(`^(\d{8})`)
	pubDateRe    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

	tailYYYYMMDD  = regexp.MustCompile(`\.([12]\d{7})$`)
	tailYMDDashed = regexp.MustCompile(`\.([12]\d{3})-(\d{2})-(\d{2})$`)
	tailYMMDD     = regexp.MustCompile(`\.([12]\d{3})-(\d{4})$`)
	tailYMRe      = regexp.MustCompile(`\.([12]\d{3})-(\d{2})$`)
	tailY         = regexp.MustCompile(`\.([12]\d{3})$`)
)

// DateKey derives the 8-character YYYYMMDD sort key of rec. Signals are
// consulted in order: release tag, publication date, identifier tail. The
// first one present decides; EpochFloor is returned when none is.
func DateKey(rec document.Record) string {
	if m := releaseTagRe.FindStringSubmatch(rec.ReleaseTag); m != nil {
		return m[1]
	}
	if m := pubDateRe.FindStringSubmatch(rec.PublicationDate); m != nil {
		return m[1] + m[2] + m[3]
	}
	if dk, ok := dateKeyFromTail(rec.DocID); ok {
		return dk
	}
	return EpochFloor
}

// IsDated reports whether rec has any usable date signal.
func IsDated(rec document.Record) bool {
	return DateKey(rec) != EpochFloor
}

func dateKeyFromTail(id string) (string, bool) {
	if m := tailYYYYMMDD.FindStringSubmatch(id); m != nil {
		return m[1], true
	}
	if m := tailYMDDashed.FindStringSubmatch(id); m != nil {
		return m[1] + m[2] + m[3], true
	}
	if m := tailYMMDD.FindStringSubmatch(id); m != nil {
		return m[1] + m[2], true
	}
	if m := tailYMRe.FindStringSubmatch(id); m != nil {
		return m[1] + m[2] + "00", true
	}
	if m := tailY.FindStringSubmatch(id); m != nil {
		return m[1] + "0000", true
	}
	return "", false
}

// YearFromDocIDTail returns the year of a YYYYMMDD, YYYY-MM or YYYY tail.
// The dashed day forms used for sorting are not read here.
func YearFromDocIDTail(id string) (int, bool) {
	for _, re := range []*regexp.Regexp{tailYYYYMMDD, tailYMRe, tailY} {
		if m := re.FindStringSubmatch(id); m != nil {
			y, err := strconv.Atoi(m[1][:4])
			if err != nil {
				return 0, false
			}
			return y, true
		}
	}
	return 0, false
}
