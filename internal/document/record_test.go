// SPDX-License-Identifier: Apache-2.0

package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediastandards/lineage/internal/document"
)

func TestRecord_CloneIsDeep(t *testing.T) {
	orig := document.Record{
		DocID: "SMPTE.ST429-6.2023-05",
		Status: document.Status{
			Active:       document.Bool(true),
			SupersededBy: []string{"SMPTE.ST429-6.2024"},
		},
		W3C: &document.W3CInfo{Family: "ttml"},
	}

	cp := orig.Clone()
	*cp.Status.Active = false
	cp.Status.SupersededBy[0] = "changed"
	cp.W3C.Family = "changed"

	assert.True(t, *orig.Status.Active)
	assert.Equal(t, "SMPTE.ST429-6.2024", orig.Status.SupersededBy[0])
	assert.Equal(t, "ttml", orig.W3C.Family)
}

func TestCurrentStatus(t *testing.T) {
	tests := []struct {
		name   string
		status document.Status
		want   string
	}{
		{name: "no flags", status: document.Status{}, want: "Unknown"},
		{name: "explicit unknown", status: document.Status{Unknown: true}, want: "Unknown"},
		{name: "active", status: document.Status{Active: document.Bool(true)}, want: "Active"},
		{
			name: "active with qualifiers",
			status: document.Status{
				Active:      document.Bool(true),
				Versionless: document.Bool(true),
				Amended:     true,
				Stabilized:  true,
				Reaffirmed:  true,
			},
			want: "Active, Versionless, Amended, Stabilized",
		},
		{name: "reaffirmed", status: document.Status{Active: document.Bool(true), Reaffirmed: true}, want: "Active, Reaffirmed"},
		{name: "draft public cd", status: document.Status{Draft: true, PublicCD: true}, want: "Draft, Public CD"},
		{name: "withdrawn", status: document.Status{Withdrawn: true, Superseded: document.Bool(true)}, want: "Withdrawn"},
		{name: "superseded", status: document.Status{Superseded: document.Bool(true)}, want: "Superseded"},
		{name: "explicit inactive", status: document.Status{Active: document.Bool(false)}, want: "Unknown"},
		{name: "status note", status: document.Status{Withdrawn: true, StatusNote: "see errata"}, want: "Withdrawn*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, document.CurrentStatus(tt.status))
		})
	}
}
