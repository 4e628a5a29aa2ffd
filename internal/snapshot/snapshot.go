// SPDX-License-Identifier: Apache-2.0

// Package snapshot reads the document registry snapshot that lineage
// building runs over. A snapshot is a YAML or JSON array of document
// records, or an object carrying that array under "documents".
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/goccy/go-yaml"

	"github.com/mediastandards/lineage/internal/document"
)

// ErrInvalidSnapshot is returned when the input is not a sequence of
// document-shaped records. It is the only fatal input error.
var ErrInvalidSnapshot = errors.New("invalid document snapshot")

// Shape of a snapshot. Unknown fields are allowed so that registry files
// carrying extra metadata still load. A null field reads as if it were
// absent; a record with a null docId is skipped when lineages are built.
const schemaSrc = `
#Status: {
	active?:         bool | null
	superseded?:     bool | null
	latestVersion?:  bool | null
	versionless?:    bool | null
	withdrawn?:      bool | null
	stabilized?:     bool | null
	reaffirmed?:     bool | null
	amended?:        bool | null
	draft?:          bool | null
	publicCd?:       bool | null
	unknown?:        bool | null
	state?:          string | null
	statusNote?:     string | null
	supersededBy?:   [...string] | null
	supersededDate?: string | null
	...
}

#Document: {
	docId?:           string | null
	docType?:         string | null
	publisher?:       string | null
	docTitle?:        string | null
	docLabel?:        string | null
	href?:            string | null
	releaseTag?:      string | null
	publicationDate?: string | null
	status?:          #Status | null
	references?:      #References | null
	...
}

#References: {
	normative?:     [...(string | null)] | null
	bibliographic?: [...(string | null)] | null
	...
}

#Documents: [...#Document]
`

// Load reads and decodes the snapshot at path.
func Load(path string) ([]document.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	recs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Decode validates and decodes a snapshot.
func Decode(data []byte) ([]document.Record, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	docs, wrapped, err := documentList(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(docs); err != nil {
		return nil, err
	}

	if wrapped {
		var out struct {
			Documents []document.Record `yaml:"documents"`
		}
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		return out.Documents, nil
	}
	var out []document.Record
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return out, nil
}

func documentList(raw any) (docs []any, wrapped bool, err error) {
	switch v := raw.(type) {
	case []any:
		return v, false, nil
	case map[string]any:
		list, ok := v["documents"].([]any)
		if !ok {
			return nil, false, fmt.Errorf("%w: object input must carry a documents array", ErrInvalidSnapshot)
		}
		return list, true, nil
	case nil:
		return []any{}, false, nil
	default:
		return nil, false, fmt.Errorf("%w: expected an array of documents, got %T", ErrInvalidSnapshot, raw)
	}
}

// Validate checks generic decoded documents against the snapshot schema.
func Validate(docs []any) error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaSrc)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling snapshot schema: %w", err)
	}

	value := cctx.Encode(docs)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Documents")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return nil
}
