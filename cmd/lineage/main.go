// SPDX-License-Identifier: Apache-2.0

// Command lineage groups a standards document snapshot into lineages,
// resolves citations and serves both as MCP tools.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lineage",
		Short:         "Standards document lineage and citation tooling",
		Long:          `Group a document registry snapshot into lineages, resolve the latest edition of every standard and map citations to document ids.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return fmt.Errorf("failed to get log-level flag: %w", err)
			}
			if err := setupLogging(level); err != nil {
				return err
			}
			mode, err := cmd.Flags().GetString("color")
			if err != nil {
				return fmt.Errorf("failed to get color flag: %w", err)
			}
			return setupColor(mode)
		},
	}

	root.PersistentFlags().String("config", "", "path to lineage.toml (default: search upwards from the working directory)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(
		newBuildCmd(),
		newKeyCmd(),
		newCiteCmd(),
		newRefsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// setupLogging installs a text handler on stderr. stdout is reserved for
// command output and the MCP transport.
func setupLogging(level string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning", "":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q (want debug|info|warn|error)", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func setupColor(mode string) error {
	switch strings.ToLower(mode) {
	case "auto", "":
		color.NoColor = !isTerminal(os.Stderr)
	case "on", "always":
		color.NoColor = false
	case "off", "never":
		color.NoColor = true
	default:
		return fmt.Errorf("unknown color mode %q (want auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
