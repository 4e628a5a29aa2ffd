// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, overridable with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}
			payload := versionPayload{
				Tool:      "lineage",
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "pretty":
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s", labelColor.Sprint(payload.Tool), okColor.Sprint(payload.Version))
				if payload.GitCommit != "" {
					fmt.Fprintf(cmd.OutOrStdout(), " (%s)", payload.GitCommit)
				}
				if payload.BuildDate != "" {
					fmt.Fprintf(cmd.OutOrStdout(), " built %s", payload.BuildDate)
				}
				fmt.Fprintf(cmd.OutOrStdout(), " %s\n", mutedColor.Sprint(payload.GoVersion))
				return nil
			default:
				return fmt.Errorf("unknown format %q (want pretty|json)", format)
			}
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}
