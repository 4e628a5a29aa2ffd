// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/citation"
)

const configFileName = "lineage.toml"

// fileConfig is the content of lineage.toml. Relative paths are resolved
// against the directory holding the file.
//
//	[build]
//	inputs = ["data/documents.json"]
//	out = "reports/lineages.json"
//	max_flag_examples = 100
//
//	[tables]
//	aliases = "config/aliases.yaml"
//	refmap = "config/refmap.yaml"
//
//	[cache]
//	dir = ".cache/lineage"
//	disabled = false
type fileConfig struct {
	Build  buildConfig  `toml:"build"`
	Tables tablesConfig `toml:"tables"`
	Cache  cacheConfig  `toml:"cache"`
}

type buildConfig struct {
	Inputs          []string `toml:"inputs"`
	Out             string   `toml:"out"`
	MaxFlagExamples int      `toml:"max_flag_examples"`
}

type tablesConfig struct {
	Aliases string `toml:"aliases"`
	RefMap  string `toml:"refmap"`
}

type cacheConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

func findConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		slog.Warn("ignoring unknown config key", slog.String("file", path), slog.String("key", key.String()))
	}

	base := filepath.Dir(path)
	for i, in := range cfg.Build.Inputs {
		cfg.Build.Inputs[i] = resolvePath(base, in)
	}
	cfg.Build.Out = resolvePath(base, cfg.Build.Out)
	cfg.Tables.Aliases = resolvePath(base, cfg.Tables.Aliases)
	cfg.Tables.RefMap = resolvePath(base, cfg.Tables.RefMap)
	cfg.Cache.Dir = resolvePath(base, cfg.Cache.Dir)
	return cfg, nil
}

func resolvePath(base, p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// configFor loads the file named by --config, or the nearest lineage.toml.
// No file at all is not an error.
func configFor(cmd *cobra.Command) (fileConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return fileConfig{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		found, ok, err := findConfigFile(".")
		if err != nil || !ok {
			return fileConfig{}, err
		}
		path = found
	}
	return loadFileConfig(path)
}

// stringFlag returns the flag value when set on the command line, else
// fallback.
func stringFlag(cmd *cobra.Command, name, fallback string) (string, error) {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if cmd.Flags().Changed(name) || fallback == "" {
		return v, nil
	}
	return fallback, nil
}

// loadAliasConfig returns the built-in alias tables, extended by the file
// at path when one is given.
func loadAliasConfig(path string) (alias.Config, []byte, error) {
	cfg := alias.DefaultConfig()
	if path == "" {
		return cfg, nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return alias.Config{}, nil, fmt.Errorf("reading alias table: %w", err)
	}
	fromFile, err := alias.ParseConfig(data, nil)
	if err != nil {
		return alias.Config{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.Merge(fromFile), data, nil
}

// newTableSource returns a lazily loaded cite pattern table, or nil when no
// table is configured.
func newTableSource(path string) *citation.TableSource {
	if path == "" {
		return nil
	}
	return citation.NewTableSource(citation.FileLoader(path), nil)
}
