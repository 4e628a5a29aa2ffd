// SPDX-License-Identifier: Apache-2.0

package document

import "strings"

// CurrentStatus renders the human-facing status label of a document.
//
// A record with no recognised flag and a record explicitly marked unknown
// both render as "Unknown"; the two cases are not distinguished.
func CurrentStatus(s Status) string {
	var parts []string
	switch {
	case IsTrue(s.Active):
		parts = append(parts, "Active")
		if IsTrue(s.Versionless) {
			parts = append(parts, "Versionless")
		}
		if s.Amended {
			parts = append(parts, "Amended")
		}
		if s.Stabilized {
			parts = append(parts, "Stabilized")
		} else if s.Reaffirmed {
			parts = append(parts, "Reaffirmed")
		}
	case s.Draft:
		parts = append(parts, "Draft")
		if s.PublicCD {
			parts = append(parts, "Public CD")
		}
	case s.Withdrawn:
		parts = append(parts, "Withdrawn")
	case IsTrue(s.Superseded):
		parts = append(parts, "Superseded")
	default:
		parts = append(parts, "Unknown")
	}

	label := strings.Join(parts, ", ")
	if s.StatusNote != "" {
		label += "*"
	}
	return label
}
