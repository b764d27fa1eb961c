package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "treecanvas",
		Short: "treecanvas - a pan/zoom point canvas",
		Long: `treecanvas draws a fixed set of points on a 2D canvas with wheel zoom
and drag panning, in the browser (wasm), as a PNG snapshot, or in the
terminal.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", ".", "Directory containing treecanvas.yaml")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newViewCommand())

	return rootCmd
}
