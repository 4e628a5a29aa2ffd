// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/tool"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lineage tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("aliases", "", "alias table (YAML or JSON) extending the built-in aliases")
	cmd.Flags().String("refmap", "", "cite pattern table (YAML or JSON)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	aliasPath, err := stringFlag(cmd, "aliases", cfg.Tables.Aliases)
	if err != nil {
		return err
	}
	refMapPath, err := stringFlag(cmd, "refmap", cfg.Tables.RefMap)
	if err != nil {
		return err
	}
	aliasCfg, _, err := loadAliasConfig(aliasPath)
	if err != nil {
		return err
	}

	ts := tool.NewToolset(alias.NewNormalizer(aliasCfg), citation.NewResolver(newTableSource(refMapPath)),
		tool.WithMaxFlagExamples(cfg.Build.MaxFlagExamples))
	server := tool.NewServer(ts, Version)

	slog.Info("serving MCP tools on stdio")
	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
