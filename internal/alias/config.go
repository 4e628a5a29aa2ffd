// SPDX-License-Identifier: Apache-2.0

package alias

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// ErrInvalidConfig is returned when an alias table file cannot be decoded at all.
// Individual malformed entries are skipped instead.
var ErrInvalidConfig = errors.New("invalid alias configuration")

// NISTAlias redirects a bare NIST token to a structured key.
type NISTAlias struct {
	Suite  string `yaml:"suite" json:"suite"`
	Number string `yaml:"number" json:"number"`
	Part   string `yaml:"part,omitempty" json:"part,omitempty"`
}

// Config holds the alias tables consulted before and during keying.
// A Config is read-only once handed to NewNormalizer.
type Config struct {
	// Global maps an exact docId to its canonical docId.
	Global map[string]string
	// W3C maps a lower-case W3C shortname to its canonical shortname.
	W3C map[string]string
	// W3CVersionedFamilies lists shortnames known to be versioned even
	// when the shortname carries no digits.
	W3CVersionedFamilies []string
	// NIST maps an upper-case NIST token to the key it stands for.
	NIST map[string]NISTAlias
}

// DefaultConfig returns the built-in alias tables.
func DefaultConfig() Config {
	return Config{
		Global: map[string]string{},
		W3C: map[string]string{
			"ttaf1-dfxp": "ttml1",
		},
		W3CVersionedFamilies: []string{"xmlschema", "xkms", "xlink", "ttml", "xmldsig-core", "xmlc14n"},
		NIST: map[string]NISTAlias{
			"KMGD": {Suite: "SP", Number: "800-57", Part: "1"},
		},
	}
}

// Merge returns a copy of c with every entry of other layered on top.
func (c Config) Merge(other Config) Config {
	out := Config{
		Global: make(map[string]string, len(c.Global)+len(other.Global)),
		W3C:    make(map[string]string, len(c.W3C)+len(other.W3C)),
		NIST:   make(map[string]NISTAlias, len(c.NIST)+len(other.NIST)),
	}
	for _, src := range []Config{c, other} {
		for k, v := range src.Global {
			out.Global[k] = v
		}
		for k, v := range src.W3C {
			out.W3C[k] = v
		}
		for k, v := range src.NIST {
			out.NIST[k] = v
		}
	}
	seen := make(map[string]struct{})
	for _, f := range append(append([]string(nil), c.W3CVersionedFamilies...), other.W3CVersionedFamilies...) {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out.W3CVersionedFamilies = append(out.W3CVersionedFamilies, f)
	}
	return out
}

// rawConfig mirrors the file layout loosely so that one bad entry does not
// reject the whole table.
type rawConfig struct {
	Global               map[string]any `yaml:"global"`
	W3C                  map[string]any `yaml:"w3c"`
	W3CVersionedFamilies []any          `yaml:"w3cVersionedFamilies"`
	NIST                 map[string]any `yaml:"nist"`
}

// ParseConfig decodes an alias table file (YAML or JSON).
//
//	global:
//	  SMPTE.AG10b.2020: SMPTE.AG10B.2020
//	w3c:
//	  ttaf1-dfxp: ttml1
//	w3cVersionedFamilies: [xmlschema, ttml]
//	nist:
//	  KMGD: {suite: SP, number: 800-57, part: "1"}
func ParseConfig(data []byte, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "alias"))

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := Config{
		Global: map[string]string{},
		W3C:    map[string]string{},
		NIST:   map[string]NISTAlias{},
	}

	for _, k := range sortedKeys(raw.Global) {
		v, ok := raw.Global[k].(string)
		if !ok || strings.TrimSpace(v) == "" || strings.TrimSpace(k) == "" {
			logger.Warn("skipping malformed global alias", slog.String("from", k))
			continue
		}
		cfg.Global[k] = strings.TrimSpace(v)
	}
	cfg.Global = dropAliasCycles(cfg.Global, logger)

	for _, k := range sortedKeys(raw.W3C) {
		v, ok := raw.W3C[k].(string)
		if !ok || strings.TrimSpace(v) == "" {
			logger.Warn("skipping malformed w3c alias", slog.String("shortname", k))
			continue
		}
		cfg.W3C[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}

	for i, v := range raw.W3CVersionedFamilies {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			logger.Warn("skipping malformed versioned family", slog.Int("index", i))
			continue
		}
		cfg.W3CVersionedFamilies = append(cfg.W3CVersionedFamilies, strings.ToLower(strings.TrimSpace(s)))
	}

	for _, k := range sortedKeys(raw.NIST) {
		a, ok := nistAliasFrom(raw.NIST[k])
		if !ok {
			logger.Warn("skipping malformed nist alias", slog.String("token", k))
			continue
		}
		cfg.NIST[strings.ToUpper(strings.TrimSpace(k))] = a
	}

	return cfg, nil
}

func nistAliasFrom(v any) (NISTAlias, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return NISTAlias{}, false
	}
	str := func(key string) string {
		switch x := m[key].(type) {
		case string:
			return strings.TrimSpace(x)
		case nil:
			return ""
		default:
			return strings.TrimSpace(fmt.Sprint(x))
		}
	}
	a := NISTAlias{Suite: str("suite"), Number: str("number"), Part: str("part")}
	if a.Suite == "" || a.Number == "" {
		return NISTAlias{}, false
	}
	return a, true
}

// dropAliasCycles returns global without the entries that lead back to
// themselves. Following such an entry never settles on one id, so a second
// normalization pass would rewrite the result again.
func dropAliasCycles(global map[string]string, logger *slog.Logger) map[string]string {
	cyclic := map[string]bool{}
	for _, k := range sortedKeys(global) {
		seen := map[string]bool{k: true}
		for cur := global[k]; ; {
			if cur == k {
				cyclic[k] = true
				break
			}
			next, ok := global[cur]
			if !ok || seen[cur] {
				break
			}
			seen[cur] = true
			cur = next
		}
	}
	if len(cyclic) == 0 {
		return global
	}

	out := make(map[string]string, len(global)-len(cyclic))
	for _, k := range sortedKeys(global) {
		if cyclic[k] {
			logger.Warn("skipping cyclic global alias", slog.String("from", k), slog.String("to", global[k]))
			continue
		}
		out[k] = global[k]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
