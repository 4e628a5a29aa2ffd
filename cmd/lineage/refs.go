// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/keying"
	"github.com/mediastandards/lineage/internal/lineage"
	"github.com/mediastandards/lineage/internal/references"
	"github.com/mediastandards/lineage/internal/references/extractors"
	"github.com/mediastandards/lineage/internal/snapshot"
)

func newRefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs [flags] <file>...",
		Short: "Build a reference index from documents' reference lists",
		Long: `Extract the normative and bibliographic references of each file and index them by canonical id.
Markdown files are read section by section; snapshot files replay the reference lists stored on their records.
Citations that cannot be resolved are listed as orphans. With --against, every indexed id is checked
for a matching document in that snapshot.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRefs,
	}
	cmd.Flags().String("against", "", "snapshot used to mark referenced ids as present")
	cmd.Flags().String("doc-id", "", "citing document id for a single markdown file (default: file name)")
	cmd.Flags().String("format", "", "format hint for every file (markdown|snapshot)")
	cmd.Flags().String("refmap", "", "cite pattern table (YAML or JSON)")
	cmd.Flags().String("aliases", "", "alias table used with --against")
	cmd.Flags().StringP("out", "o", "-", "output file (- for stdout)")
	return cmd
}

func runRefs(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	refMapPath, err := stringFlag(cmd, "refmap", cfg.Tables.RefMap)
	if err != nil {
		return err
	}
	aliasPath, err := stringFlag(cmd, "aliases", cfg.Tables.Aliases)
	if err != nil {
		return err
	}
	against, err := cmd.Flags().GetString("against")
	if err != nil {
		return fmt.Errorf("failed to get against flag: %w", err)
	}
	docID, err := cmd.Flags().GetString("doc-id")
	if err != nil {
		return fmt.Errorf("failed to get doc-id flag: %w", err)
	}
	if docID != "" && len(args) > 1 {
		return fmt.Errorf("--doc-id needs exactly one file")
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}

	idx := citation.NewIndex()
	recorder := references.NewRecorder(citation.NewResolver(newTableSource(refMapPath)), idx)
	pipeline := references.NewPipeline(recorder, extractors.Defaults()...)

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		id := docID
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		res, err := pipeline.Run(cmd.Context(), references.Source{Content: data, Format: format, ID: id})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		slog.Info("references indexed",
			slog.String("file", path),
			slog.String("extractor", res.ExtractorUsed),
			slog.Int("resolved", res.Tally.Resolved),
			slog.Int("replayed", res.Tally.Replayed),
			slog.Int("unresolved", res.Tally.Unresolved))
	}

	var present citation.PresenceFunc
	if against != "" {
		present, err = presenceAgainst(against, aliasPath)
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(idx.SnapshotWithPresence(present), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding reference index: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), out, append(data, '\n'))
}

func presenceAgainst(snapshotPath, aliasPath string) (citation.PresenceFunc, error) {
	recs, err := snapshot.Load(snapshotPath)
	if err != nil {
		return nil, err
	}
	aliasCfg, _, err := loadAliasConfig(aliasPath)
	if err != nil {
		return nil, err
	}
	norm := alias.NewNormalizer(aliasCfg)
	builder := lineage.NewBuilder(norm, keying.NewKeyer(norm))
	return builder.Presence(builder.Build(recs)), nil
}
