// SPDX-License-Identifier: Apache-2.0

package keying_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/document"
	"github.com/mediastandards/lineage/internal/keying"
)

func newKeyer() *keying.Keyer {
	return keying.NewKeyer(alias.NewNormalizer(alias.DefaultConfig()))
}

// ---------------------------------------------------------------------------
// Grammar
// ---------------------------------------------------------------------------

func TestKeyer_Key(t *testing.T) {
	k := newKeyer()

	tests := []struct {
		docID    string
		wantJoin string
	}{
		{"SMPTE.ST429-6.2023-05", "SMPTE|ST|429|6"},
		{"SMPTE.ST2067-2.2020Am1.2021", "SMPTE|ST|2067|2"},
		{"SMPTE.AG10B.2020", "SMPTE|AG|10B|"},
		{"SMPTE.RP2077v2.2019", "SMPTE|RP|2077|"},
		{"SMPTE.OV2067.2020", "SMPTE|OV|2067|0"},
		{"SMPTE.OV2067-10.2020", "SMPTE|OV|2067|10"},
		{"SMPTE.OM.Bylaws.2020", "SMPTE|OM|Bylaws|"},
		{"rfc2119", "IETF|RFC|2119|"},
		{"RFC8216", "IETF|RFC|8216|"},
		{"IEC.61966-2-1.1999", "IEC||61966|2-1"},
		{"ISO.14496-12.2015", "ISO||14496|12"},
		{"ISO.Dir-P1.2021", "ISO/IEC|Dir|P1|"},
		{"W3C.xmlschema-1.20041028", "W3C|xmlschema|1|"},
		{"W3C.html5.20141028", "W3C|HTML||"},
		{"W3C.foo.LATEST", "W3C|foo||"},
		{"WHATWG.html", "WHATWG|HTML||"},
		{"NIST.SP.800-57p1r2007", "NIST|SP|800-57|1"},
		{"NIST.SP.800-38a-add.2010", "NIST|SP|800-38a|"},
		{"NIST.KMGD", "NIST|SP|800-57|1"},
		{"NIST.FIPS.140-2", "NIST|FIPS|140|"},
		{"UNICODE.STD.TR9", "UNICODE CONSORTIUM|STD|TR|9"},
		{"DCI.DCSS.v1.4.2020-07", "DCI|DCSS||"},
		{"DCI.M-Dcp.2016-01", "DCI|M||DCP"},
		{"ARIB.STD-B67.v1.1.2016", "ARIB|STD|B67|"},
		{"T-REC-H.264.201906", "ITU-T|H|264|"},
		{"R-REC-BT.709-6.201506", "ITU-R|BT|709|"},
		{"ATSC.A.85.2013", "ATSC|A|85|"},
		{"EBU.Tech3285s1.2009", "EBU|TECH|3285|"},
		{"AES.31-3.2008", "AES||31|3"},
		{"aes67.2018", "AES||67|"},
		{"ANSI.S1.11.2004", "ASA|S1|11|"},
		{"ASA.S12.60.p1.2010", "ASA|S12|60|1"},
		{"IEEE.1394.1995", "IEEE|STD|1394|"},
		{"TIFF.r6.1992", "Aldus Corp/Adobe|TIFF||"},
		{"DPP.001", "DPP||001|"},
	}

	for _, tt := range tests {
		t.Run(tt.docID, func(t *testing.T) {
			key, ok := k.Key(tt.docID, document.Record{DocID: tt.docID})
			require.True(t, ok, "expected %q to be keyable", tt.docID)
			assert.Equal(t, tt.wantJoin, key.Join())
		})
	}
}

func TestKeyer_Unkeyable(t *testing.T) {
	k := newKeyer()
	for _, id := range []string{"FOO.BAR.2020", "not an id", "", "DCI.FOO.v1.2020-07"} {
		_, ok := k.Key(id, document.Record{DocID: id})
		assert.False(t, ok, "expected %q to be unkeyable", id)
	}
}

func TestKeyer_PrefersAttachedW3CFamily(t *testing.T) {
	k := newKeyer()
	rec := document.Record{
		DocID: "W3C.ttml.2018",
		W3C:   &document.W3CInfo{Shortname: "ttml2", Family: "ttml", Version: "2"},
	}

	key, ok := k.Key(rec.DocID, rec)
	require.True(t, ok)
	assert.Equal(t, "W3C|ttml|2|", key.Join())

	key, ok = k.Key(rec.DocID, document.Record{DocID: rec.DocID})
	require.True(t, ok)
	assert.Equal(t, "W3C|ttml||", key.Join())
}

func TestKeyer_C14NSpellingsShareKey(t *testing.T) {
	k := newKeyer()
	for _, id := range []string{"W3C.xmlc14n11.20080502", "W3C.xml-c14n11.20080502"} {
		key, ok := k.Key(id, document.Record{DocID: id})
		require.True(t, ok, id)
		assert.Equal(t, "W3C|xmlc14n|1.1|", key.Join(), id)
	}
}

func TestKeyer_FirstMatcherWins(t *testing.T) {
	shape := regexp.MustCompile(`^X\.(\d+)$`)
	k := keying.NewKeyerWithMatchers(
		keying.Matcher{Name: "declines", Pattern: shape, Build: func([]string, document.Record) (keying.Key, bool) {
			return keying.Key{}, false
		}},
		keying.Matcher{Name: "first", Pattern: shape, Build: func(m []string, _ document.Record) (keying.Key, bool) {
			return keying.Key{Publisher: "FIRST", Number: m[1]}, true
		}},
		keying.Matcher{Name: "second", Pattern: shape, Build: func(m []string, _ document.Record) (keying.Key, bool) {
			return keying.Key{Publisher: "SECOND", Number: m[1]}, true
		}},
	)

	key, rule, ok := k.KeyWithRule("X.7", document.Record{})
	require.True(t, ok)
	assert.Equal(t, "first", rule)
	assert.Equal(t, "FIRST||7|", key.Join())
	assert.Equal(t, []string{"declines", "first", "second"}, k.RegisteredMatchers())
}

func TestKeyer_DefaultGrammarPriority(t *testing.T) {
	k := newKeyer()

	// Matches both the AG/OM shape and the generic SMPTE shape.
	_, rule, ok := k.KeyWithRule("SMPTE.AG10B.2020", document.Record{})
	require.True(t, ok)
	assert.Equal(t, "smpte-ag-om", rule)

	names := k.RegisteredMatchers()
	assert.Less(t, indexOf(names, "smpte-rp-edition"), indexOf(names, "smpte"))
	assert.Less(t, indexOf(names, "nist-alias"), indexOf(names, "nist-sp"))
	assert.GreaterOrEqual(t, len(names), 40)
}

func indexOf(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Dates
// ---------------------------------------------------------------------------

func TestDateKey(t *testing.T) {
	tests := []struct {
		name string
		rec  document.Record
		want string
	}{
		{name: "release tag", rec: document.Record{DocID: "SMPTE.ST1.2001", ReleaseTag: "20230512-pub"}, want: "20230512"},
		{name: "release tag wins over publication date", rec: document.Record{ReleaseTag: "20230512-pub", PublicationDate: "2024-01-01"}, want: "20230512"},
		{name: "publication date", rec: document.Record{DocID: "SMPTE.ST1.2001", PublicationDate: "2019-03-04"}, want: "20190304"},
		{name: "malformed publication date falls through", rec: document.Record{DocID: "SMPTE.ST1.2001", PublicationDate: "2019"}, want: "20010000"},
		{name: "tail yyyymmdd", rec: document.Record{DocID: "W3C.xmlschema-1.20041028"}, want: "20041028"},
		{name: "tail yyyy-mm-dd", rec: document.Record{DocID: "X.2020-01-02"}, want: "20200102"},
		{name: "tail yyyy-mmdd", rec: document.Record{DocID: "X.2020-0102"}, want: "20200102"},
		{name: "tail yyyy-mm", rec: document.Record{DocID: "SMPTE.ST429-6.2023-05"}, want: "20230500"},
		{name: "tail yyyy", rec: document.Record{DocID: "SMPTE.ST2067-2.2020"}, want: "20200000"},
		{name: "no date", rec: document.Record{DocID: "rfc2119"}, want: keying.EpochFloor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keying.DateKey(tt.rec))
		})
	}
	assert.False(t, keying.IsDated(document.Record{DocID: "rfc2119"}))
}

func TestYearFromDocIDTail(t *testing.T) {
	y, ok := keying.YearFromDocIDTail("SMPTE.ST2067-2.2020")
	require.True(t, ok)
	assert.Equal(t, 2020, y)

	y, ok = keying.YearFromDocIDTail("W3C.xmlschema-1.20041028")
	require.True(t, ok)
	assert.Equal(t, 2004, y)

	y, ok = keying.YearFromDocIDTail("SMPTE.ST429-6.2023-05")
	require.True(t, ok)
	assert.Equal(t, 2023, y)

	for _, id := range []string{"rfc2119", "ISO.15444-1.2019-10-01", "SMPTE.ST2110-10.2022-0315"} {
		_, ok = keying.YearFromDocIDTail(id)
		assert.False(t, ok, id)
	}
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestIsAmendmentAndSupplement(t *testing.T) {
	amendments := []string{
		"SMPTE.ST2067-2.2020Am1.2021",
		"ISO.14496-12.2015amd1.2018",
		"ISO.14496-12.2015cor2.2017",
		"NIST.SP.800-38a-add.2010",
		"NIST.SP.800-53add1.2011",
		"AES.31-3.2008ad1.2012",
		"T-REC-H.264.201906am1.202001",
		"ICC.1.2010e.2019",
	}
	for _, id := range amendments {
		assert.True(t, keying.IsAmendment(id), id)
		assert.False(t, keying.IsBase(id), id)
	}

	supplements := []string{"ATSC.A.85.annexa.2013", "EBU.Tech3285s1.2009"}
	for _, id := range supplements {
		assert.True(t, keying.IsSupplement(id), id)
		assert.False(t, keying.IsBase(id), id)
	}

	for _, id := range []string{"SMPTE.ST2067-2.2020", "rfc2119", "ISO.14496-12.2015"} {
		assert.True(t, keying.IsBase(id), id)
	}
}

// ---------------------------------------------------------------------------
// Publisher
// ---------------------------------------------------------------------------

func TestKeyer_Publisher(t *testing.T) {
	k := newKeyer()

	tests := []struct {
		rec  document.Record
		want string
	}{
		{document.Record{DocID: "SMPTE.ST1.2001", Publisher: " ansi/smpte "}, "SMPTE"},
		{document.Record{DocID: "rfc2119"}, "IETF"},
		{document.Record{DocID: "UNICODE.STD.TR9"}, "UNICODE CONSORTIUM"},
		{document.Record{DocID: "FOO.BAR"}, "FOO"},
		{document.Record{DocID: "x"}, keying.UnknownPublisher},
		{document.Record{}, keying.UnknownPublisher},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, k.Publisher(tt.rec), tt.rec.DocID)
	}
}
