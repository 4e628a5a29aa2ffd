// SPDX-License-Identifier: Apache-2.0

package keying

import (
	"regexp"
	"strings"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/document"
)

// Key is the structured identity of a document lineage.
// Empty Suite, Number or Part means the component is absent.
type Key struct {
	Publisher string `json:"publisher"`
	Suite     string `json:"suite,omitempty"`
	Number    string `json:"number,omitempty"`
	Part      string `json:"part,omitempty"`
}

// Join renders the key as publisher|suite|number|part. Two documents belong
// to the same lineage exactly when their joins are equal.
func (k Key) Join() string {
	return strings.Join([]string{k.Publisher, k.Suite, k.Number, k.Part}, "|")
}

// Matcher binds one publisher identifier shape to a key builder.
// Build may decline a match (ok == false), in which case the next matcher
// is tried; Pattern alone does not decide.
type Matcher struct {
	Name    string
	Pattern *regexp.Regexp
	Build   func(m []string, rec document.Record) (Key, bool)
}

// Keyer reduces normalized identifiers to structured keys.
type Keyer struct {
	matchers []Matcher
}

// NewKeyer creates a Keyer with the default publisher grammar. The
// normalizer supplies the NIST alias table and the W3C family split.
func NewKeyer(norm *alias.Normalizer) *Keyer {
	return &Keyer{matchers: DefaultGrammar(norm)}
}

// NewKeyerWithMatchers creates a Keyer over an explicit grammar.
// Matchers are evaluated in the given order.
func NewKeyerWithMatchers(matchers ...Matcher) *Keyer {
	return &Keyer{matchers: matchers}
}

// Key returns the structured key for docID. rec is the normalized record the
// id came from and is only consulted by publisher-specific builders. The
// first matcher whose pattern matches and whose builder accepts wins.
func (k *Keyer) Key(docID string, rec document.Record) (Key, bool) {
	key, _, ok := k.KeyWithRule(docID, rec)
	return key, ok
}

// KeyWithRule is Key plus the name of the matcher that produced the key.
func (k *Keyer) KeyWithRule(docID string, rec document.Record) (Key, string, bool) {
	for _, m := range k.matchers {
		sub := m.Pattern.FindStringSubmatch(docID)
		if sub == nil {
			continue
		}
		if key, ok := m.Build(sub, rec); ok {
			return key, m.Name, true
		}
	}
	return Key{}, "", false
}

// RegisteredMatchers returns the matcher names in priority order.
func (k *Keyer) RegisteredMatchers() []string {
	names := make([]string, len(k.matchers))
	for i, m := range k.matchers {
		names[i] = m.Name
	}
	return names
}
