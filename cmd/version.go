package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.Version=...".
var (
	Version = "dev"
	GitHash = "None"
	BuildTS = "None"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Args:  cobra.NoArgs,
	// no config or logger needed
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	PersistentPostRun: func(*cobra.Command, []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		h := GitHash
		if len(h) > 7 {
			h = h[:7]
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Version:          ", Version)
		fmt.Fprintln(cmd.OutOrStdout(), "Git Commit:       ", h)
		fmt.Fprintln(cmd.OutOrStdout(), "Build Time (UTC): ", BuildTS)
	},
}
