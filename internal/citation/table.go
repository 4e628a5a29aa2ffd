// SPDX-License-Identifier: Apache-2.0

package citation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

// ErrInvalidRefMap is returned when a pattern table file cannot be decoded
// at all. Malformed individual patterns are skipped instead.
var ErrInvalidRefMap = errors.New("invalid citation pattern table")

// RefMap is the cite-to-id table as stored on disk. ByCitePatterns maps a
// canonical id to one pattern or a list of patterns, in file order.
//
//	byCitePatterns:
//	  SMPTE.ST2067-2.2020:
//	    - "SMPTE ST 2067-2:2020"
//	    - "/^IMF Core Constraints/i"
type RefMap struct {
	ByCitePatterns yaml.MapSlice `yaml:"byCitePatterns" json:"byCitePatterns"`
}

// ParseRefMap decodes a pattern table from YAML or JSON.
func ParseRefMap(data []byte) (RefMap, error) {
	var rm RefMap
	if err := yaml.Unmarshal(data, &rm); err != nil {
		return RefMap{}, fmt.Errorf("%w: %w", ErrInvalidRefMap, err)
	}
	return rm, nil
}

var (
	delimitedPatternRe = regexp.MustCompile(`(?i)^\s*/(.*)/([a-z]*)\s*$`)
	whitespaceRunRe    = regexp.MustCompile(`\s+`)
)

type patternKind int

const (
	kindPlain patternKind = iota
	kindRegex
)

type pattern struct {
	kind   patternKind
	key    string
	re     *regexp.Regexp
	source string
	refID  string
}

// PatternTable is a compiled RefMap. It is immutable and safe for
// concurrent use.
type PatternTable struct {
	patterns []pattern
}

// NewPatternTable compiles rm. Literal patterns match case- and
// whitespace-insensitively; /body/flags patterns are regular expressions
// whose flags default to i. Entries that are not strings or do not compile
// are logged and skipped.
func NewPatternTable(rm RefMap, logger *slog.Logger) *PatternTable {
	if logger == nil {
		logger = slog.Default()
	}
	t := &PatternTable{}
	for _, item := range rm.ByCitePatterns {
		refID, ok := item.Key.(string)
		if !ok || strings.TrimSpace(refID) == "" {
			logger.Warn("skipping pattern entry with non-string id", slog.Any("id", item.Key))
			continue
		}
		for _, raw := range patternStrings(item.Value) {
			p, err := compilePattern(refID, raw)
			if err != nil {
				logger.Warn("skipping malformed cite pattern",
					slog.String("refId", refID),
					slog.String("pattern", raw),
					slog.String("error", err.Error()))
				continue
			}
			t.patterns = append(t.patterns, p)
		}
	}
	return t
}

// Len returns the number of compiled patterns.
func (t *PatternTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.patterns)
}

// Lookup matches text against the table: every literal pattern first, then
// every regular expression, each in file order.
func (t *PatternTable) Lookup(text string) (Result, bool) {
	if t == nil || text == "" {
		return Result{}, false
	}
	norm := normalizeCite(text)
	for _, p := range t.patterns {
		if p.kind == kindPlain && p.key == norm {
			return Result{RefID: p.refID, MapSource: SourcePlain, MapDetail: "=" + norm}, true
		}
	}
	for _, p := range t.patterns {
		if p.kind == kindRegex && p.re.MatchString(text) {
			return Result{RefID: p.refID, MapSource: SourceRegex, MapDetail: p.source}, true
		}
	}
	return Result{}, false
}

func patternStrings(v any) []string {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) != "" {
			return []string{val}
		}
	case []any:
		var out []string
		for _, e := range val {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	}
	return nil
}

func compilePattern(refID, raw string) (pattern, error) {
	m := delimitedPatternRe.FindStringSubmatch(raw)
	if m == nil {
		key := normalizeCite(raw)
		if key == "" {
			return pattern{}, errors.New("empty literal")
		}
		return pattern{kind: kindPlain, key: key, refID: refID}, nil
	}

	body, flags := m[1], m[2]
	if flags == "" {
		flags = "i"
	}
	re, err := regexp.Compile(goFlags(flags) + body)
	if err != nil {
		return pattern{}, err
	}
	return pattern{kind: kindRegex, re: re, source: "/" + body + "/" + flags, refID: refID}, nil
}

// goFlags keeps the flags RE2 understands. Global, sticky and unicode
// flags have no meaning for a single match test.
func goFlags(flags string) string {
	var b strings.Builder
	for _, f := range strings.ToLower(flags) {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(b.String(), f) {
				b.WriteRune(f)
			}
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "(?" + b.String() + ")"
}

func normalizeCite(s string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRunRe.ReplaceAllString(s, " ")))
}

// Loader returns the raw bytes of a pattern table.
type Loader func() ([]byte, error)

// FileLoader reads the pattern table from path.
func FileLoader(path string) Loader {
	return func() ([]byte, error) {
		return os.ReadFile(path)
	}
}

// TableSource loads a PatternTable on first use and keeps it until Reload
// is called. A failed load yields an empty table and is reported by
// LoadErr; it never fails resolution.
type TableSource struct {
	load   Loader
	logger *slog.Logger

	mu    sync.Mutex
	table *PatternTable
	err   error
}

// NewTableSource creates a TableSource backed by load.
func NewTableSource(load Loader, logger *slog.Logger) *TableSource {
	if logger == nil {
		logger = slog.Default().With(slog.String("component", "citation"))
	}
	return &TableSource{load: load, logger: logger}
}

// StaticSource wraps an already compiled table.
func StaticSource(t *PatternTable) *TableSource {
	return &TableSource{table: t, logger: slog.Default()}
}

// Table returns the loaded table, loading it on the first call.
func (s *TableSource) Table() *PatternTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		s.loadLocked()
	}
	return s.table
}

// Reload discards the current table and loads it again.
func (s *TableSource) Reload() *PatternTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.load != nil {
		s.table = nil
		s.err = nil
	}
	if s.table == nil {
		s.loadLocked()
	}
	return s.table
}

// LoadErr returns the error of the last load, if any.
func (s *TableSource) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *TableSource) loadLocked() {
	s.table = &PatternTable{}
	if s.load == nil {
		return
	}
	data, err := s.load()
	if err != nil {
		s.err = fmt.Errorf("loading pattern table: %w", err)
		s.logger.Warn("pattern table unavailable", slog.String("error", err.Error()))
		return
	}
	rm, err := ParseRefMap(data)
	if err != nil {
		s.err = err
		s.logger.Warn("pattern table unreadable", slog.String("error", err.Error()))
		return
	}
	s.table = NewPatternTable(rm, s.logger)
	s.logger.Debug("pattern table loaded", slog.Int("patterns", s.table.Len()))
}
