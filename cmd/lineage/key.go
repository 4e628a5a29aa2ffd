// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/tool"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key [flags] <docId>...",
		Short: "Show the lineage key of document identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runKey,
	}
	cmd.Flags().String("aliases", "", "alias table (YAML or JSON) extending the built-in aliases")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runKey(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	aliasPath, err := stringFlag(cmd, "aliases", cfg.Tables.Aliases)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	aliasCfg, _, err := loadAliasConfig(aliasPath)
	if err != nil {
		return err
	}

	ts := tool.NewToolset(alias.NewNormalizer(aliasCfg), citation.NewResolver(nil))
	outs := make([]tool.OutputKeyDocumentID, 0, len(args))
	for _, id := range args {
		_, out, err := ts.KeyDocumentID(cmd.Context(), nil, tool.InputKeyDocumentID{DocID: id})
		if err != nil {
			return err
		}
		outs = append(outs, out)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outs)
	case "pretty":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for i, out := range outs {
			if !out.Keyed {
				fmt.Fprintf(tw, "%s\t%s\n", args[i], badColor.Sprint("(unkeyed)"))
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", args[i], labelColor.Sprint(out.Key), out.DateKey, mutedColor.Sprint(out.Rule))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want pretty|json)", format)
	}
}
