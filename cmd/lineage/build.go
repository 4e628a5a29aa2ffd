// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/cache"
	"github.com/mediastandards/lineage/internal/keying"
	"github.com/mediastandards/lineage/internal/lineage"
	"github.com/mediastandards/lineage/internal/snapshot"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] [snapshot...]",
		Short: "Build the lineage report of one or more document snapshots",
		Long: `Build the lineage report of each snapshot. With a single snapshot the report goes to --out
(stdout by default). With several, each report is written to --out-dir as <name>.lineage.json.
Snapshots are processed concurrently; each run uses its own configuration instance.`,
		RunE: runBuild,
	}
	cmd.Flags().StringP("out", "o", "-", "output file for a single snapshot (- for stdout)")
	cmd.Flags().String("out-dir", "", "output directory when building several snapshots (default: next to each input)")
	cmd.Flags().String("aliases", "", "alias table (YAML or JSON) extending the built-in aliases")
	cmd.Flags().Int("max-flag-examples", lineage.DefaultMaxFlagExamples, "examples kept per flag type in the flag summary")
	cmd.Flags().Bool("annotate", false, "include per-document annotations in the report")
	cmd.Flags().Int("jobs", 0, "max snapshots built in parallel (0=auto)")
	cmd.Flags().String("cache-dir", "", "report cache directory (default: $XDG_CACHE_HOME/lineage)")
	cmd.Flags().Bool("no-cache", false, "do not read or write the report cache")
	return cmd
}

type buildOptions struct {
	inputs          []string
	out             string
	outDir          string
	aliasPath       string
	maxFlagExamples int
	annotate        bool
	jobs            int
	cacheDir        string
	noCache         bool
}

func buildOptionsFor(cmd *cobra.Command, args []string) (buildOptions, error) {
	cfg, err := configFor(cmd)
	if err != nil {
		return buildOptions{}, err
	}

	opts := buildOptions{inputs: args}
	if len(opts.inputs) == 0 {
		opts.inputs = cfg.Build.Inputs
	}
	if len(opts.inputs) == 0 {
		return buildOptions{}, fmt.Errorf("no snapshot given: pass a path or set build.inputs in %s", configFileName)
	}

	if opts.out, err = stringFlag(cmd, "out", cfg.Build.Out); err != nil {
		return buildOptions{}, err
	}
	if opts.outDir, err = cmd.Flags().GetString("out-dir"); err != nil {
		return buildOptions{}, fmt.Errorf("failed to get out-dir flag: %w", err)
	}
	if opts.aliasPath, err = stringFlag(cmd, "aliases", cfg.Tables.Aliases); err != nil {
		return buildOptions{}, err
	}
	if opts.cacheDir, err = stringFlag(cmd, "cache-dir", cfg.Cache.Dir); err != nil {
		return buildOptions{}, err
	}
	if opts.maxFlagExamples, err = cmd.Flags().GetInt("max-flag-examples"); err != nil {
		return buildOptions{}, fmt.Errorf("failed to get max-flag-examples flag: %w", err)
	}
	if !cmd.Flags().Changed("max-flag-examples") && cfg.Build.MaxFlagExamples > 0 {
		opts.maxFlagExamples = cfg.Build.MaxFlagExamples
	}
	if opts.annotate, err = cmd.Flags().GetBool("annotate"); err != nil {
		return buildOptions{}, fmt.Errorf("failed to get annotate flag: %w", err)
	}
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return buildOptions{}, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return buildOptions{}, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	opts.noCache = opts.noCache || cfg.Cache.Disabled
	return opts, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := buildOptionsFor(cmd, args)
	if err != nil {
		return err
	}

	aliasCfg, aliasBytes, err := loadAliasConfig(opts.aliasPath)
	if err != nil {
		return err
	}

	var rc *cache.Cache
	if !opts.noCache {
		rc, err = cache.Open(opts.cacheDir, nil)
		if err != nil {
			// The cache only saves time; a build without it is still correct.
			slog.Warn("report cache unavailable", slog.String("error", err.Error()))
			rc = nil
		}
	}

	jobs := opts.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]buildResult, len(opts.inputs))
	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(opts.inputs)))
	for i, path := range opts.inputs {
		g.Go(func() error {
			res, err := buildOne(gctx, path, aliasCfg, aliasBytes, opts, rc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(results) == 1 {
		if err := writeOutput(cmd.OutOrStdout(), opts.out, results[0].report); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if err := writeOutput(cmd.OutOrStdout(), multiOutputPath(res.path, opts.outDir), res.report); err != nil {
				return err
			}
		}
	}

	for _, res := range results {
		printSummary(cmd.ErrOrStderr(), res)
	}
	return nil
}

type buildResult struct {
	path    string
	report  []byte
	summary cache.Summary
	cached  bool
}

// buildOne builds one snapshot with its own normalizer, keyer and builder.
func buildOne(ctx context.Context, path string, aliasCfg alias.Config, aliasBytes []byte, opts buildOptions, rc *cache.Cache) (buildResult, error) {
	if err := ctx.Err(); err != nil {
		return buildResult{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return buildResult{}, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	key := cache.Key(
		data,
		aliasBytes,
		[]byte(strconv.Itoa(opts.maxFlagExamples)),
		[]byte(strconv.FormatBool(opts.annotate)),
		[]byte(Version),
	)
	if payload, ok, err := rc.Get(key); err != nil {
		slog.Warn("ignoring unreadable cache entry", slog.String("snapshot", path), slog.String("error", err.Error()))
	} else if ok {
		return buildResult{path: path, report: payload.Report, summary: payload.Summary, cached: true}, nil
	}

	recs, err := snapshot.Decode(data)
	if err != nil {
		return buildResult{}, fmt.Errorf("%s: %w", path, err)
	}

	norm := alias.NewNormalizer(aliasCfg)
	builder := lineage.NewBuilder(norm, keying.NewKeyer(norm),
		lineage.WithLogger(slog.Default().With(slog.String("component", "lineage"), slog.String("snapshot", path))),
		lineage.WithMaxFlagExamples(opts.maxFlagExamples))
	rep := builder.Build(recs)

	doc := reportDocument{Report: rep}
	if opts.annotate {
		doc.Annotations = rep.Annotations()
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return buildResult{}, fmt.Errorf("encoding report: %w", err)
	}
	out = append(out, '\n')

	summary := cache.Summary{
		Total:    rep.Total,
		Kept:     rep.Kept,
		Skipped:  rep.Skipped,
		Lineages: len(rep.Lineages),
		Flags:    rep.FlagSummary.TotalFlags,
	}
	if err := rc.Put(key, cache.Payload{Summary: summary, Report: out}); err != nil {
		slog.Warn("could not cache report", slog.String("snapshot", path), slog.String("error", err.Error()))
	}
	return buildResult{path: path, report: out, summary: summary}, nil
}

// reportDocument is the serialized build output.
type reportDocument struct {
	*lineage.Report
	Annotations []lineage.Annotation `json:"annotations,omitempty"`
}

func multiOutputPath(input, outDir string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".lineage.json"
	if outDir == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(outDir, name)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
