// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediastandards/lineage/internal/citation"
)

var errUnresolved = errors.New("citation not resolved")

func newCiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cite [flags] <citation text>",
		Short: "Resolve a citation to a document id",
		Args:  cobra.ArbitraryArgs,
		RunE:  runCite,
	}
	cmd.Flags().String("href", "", "link attached to the citation")
	cmd.Flags().String("refmap", "", "cite pattern table (YAML or JSON)")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runCite(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	refMapPath, err := stringFlag(cmd, "refmap", cfg.Tables.RefMap)
	if err != nil {
		return err
	}
	href, err := cmd.Flags().GetString("href")
	if err != nil {
		return fmt.Errorf("failed to get href flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	text := strings.Join(args, " ")
	if text == "" && href == "" {
		return fmt.Errorf("citation text or --href is required")
	}

	source := newTableSource(refMapPath)
	res, ok := citation.NewResolver(source).Resolve(text, href)
	if source != nil {
		if err := source.LoadErr(); err != nil {
			slog.Warn("cite pattern table not used", slog.String("error", err.Error()))
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Resolved bool `json:"resolved"`
			citation.Result
		}{ok, res}); err != nil {
			return err
		}
	case "pretty":
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", labelColor.Sprint(res.RefID), mutedColor.Sprintf("%s %s", res.MapSource, res.MapDetail))
		}
	default:
		return fmt.Errorf("unknown format %q (want pretty|json)", format)
	}
	if !ok {
		return fmt.Errorf("%w: %q", errUnresolved, text)
	}
	return nil
}
