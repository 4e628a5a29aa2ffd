// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"context"
	"regexp"
	"strings"

	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/references"
)

// MarkdownExtractor reads the reference lists of a Markdown rendering of a
// standard. Sections are found by heading; every list item below a
// reference heading is one reference. The text before the first comma is
// the citation, the rest is the title.
type MarkdownExtractor struct{}

// NewMarkdownExtractor creates a new MarkdownExtractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{}
}

func (e *MarkdownExtractor) Name() string {
	return "markdown"
}

// CanHandle returns true for sources that use the "markdown" format hint,
// or whose content carries a Markdown heading.
func (e *MarkdownExtractor) CanHandle(source references.Source) bool {
	if strings.EqualFold(source.Format, "markdown") || strings.EqualFold(source.Format, "md") {
		return true
	}
	content := strings.TrimSpace(string(source.Content))
	return strings.HasPrefix(content, "#") || strings.Contains(content, "\n#")
}

var (
	listItemRe   = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.*)$`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
	autoLinkRe   = regexp.MustCompile(`<(https?://[^>\s]+)>`)
	bareURLRe    = regexp.MustCompile(`https?://[^\s)>]+`)
	emphasisRe   = regexp.MustCompile("[*`]+")
	urlSuffixRe  = regexp.MustCompile(`(?i)\burl:\s*.*$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func (e *MarkdownExtractor) Extract(_ context.Context, source references.Source) ([]references.Reference, error) {
	lines := strings.Split(string(source.Content), "\n")

	var refs []references.Reference
	var refType string
	var item []string

	flush := func() {
		if refType == "" || len(item) == 0 {
			item = nil
			return
		}
		if ref, ok := parseItem(source.ID, refType, strings.Join(item, " ")); ok {
			refs = append(refs, ref)
		}
		item = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			flush()
			refType, _ = references.SectionType(strings.TrimSpace(strings.TrimLeft(line, "#")))
			continue
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			flush()
			item = []string{m[1]}
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		// Continuation of a wrapped list item.
		if item != nil {
			item = append(item, strings.TrimSpace(line))
		}
	}
	flush()

	return refs, nil
}

func parseItem(citingID, refType, raw string) (references.Reference, bool) {
	var href string
	if m := mdLinkRe.FindStringSubmatch(raw); m != nil {
		href = m[2]
	} else if m := autoLinkRe.FindStringSubmatch(raw); m != nil {
		href = m[1]
	} else if m := bareURLRe.FindString(raw); m != "" {
		href = strings.TrimRight(m, ".,;")
	}

	plain := mdLinkRe.ReplaceAllString(raw, "$1")
	plain = autoLinkRe.ReplaceAllString(plain, "$1")
	plain = emphasisRe.ReplaceAllString(plain, "")
	plain = strings.TrimSpace(whitespaceRe.ReplaceAllString(plain, " "))
	if plain == "" {
		return references.Reference{}, false
	}

	cite, rest, _ := strings.Cut(plain, ",")
	cite = strings.TrimSpace(cite)
	title := strings.Trim(urlSuffixRe.ReplaceAllString(rest, ""), " ,;")

	return references.Reference{Sighting: citation.Sighting{
		DocID:  citingID,
		Type:   refType,
		Cite:   cite,
		Href:   href,
		RawRef: plain,
		Title:  title,
	}}, true
}
