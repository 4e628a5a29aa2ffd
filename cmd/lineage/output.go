// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	labelColor   = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	badColor     = color.New(color.FgRed)
	mutedColor   = color.New(color.FgCyan)
	summaryWidth = 28
)

// printSummary writes one line per built snapshot:
//
//	documents.json              total 812  kept 790  skipped 22  lineages 341  flags 17
func printSummary(w io.Writer, res buildResult) {
	s := res.summary
	var b strings.Builder
	b.WriteString(labelColor.Sprint(padRight(res.path, summaryWidth)))
	fmt.Fprintf(&b, "  total %d  kept %s", s.Total, okColor.Sprint(s.Kept))
	b.WriteString("  skipped ")
	b.WriteString(countColor(s.Skipped, badColor).Sprint(s.Skipped))
	fmt.Fprintf(&b, "  lineages %d", s.Lineages)
	b.WriteString("  flags ")
	b.WriteString(countColor(s.Flags, warnColor).Sprint(s.Flags))
	if res.cached {
		b.WriteString("  ")
		b.WriteString(mutedColor.Sprint("(cached)"))
	}
	fmt.Fprintln(w, b.String())
}

func countColor(n int, c *color.Color) *color.Color {
	if n == 0 {
		return okColor
	}
	return c
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
