package main

import (
	"github.com/spf13/cobra"

	"github.com/recera/treecanvas/cmd/treecanvas/internal/config"
	"github.com/recera/treecanvas/cmd/treecanvas/internal/tui"
)

func newViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the canvas in the terminal",
		Long:  `Shows the points in the terminal. The mouse wheel zooms, dragging with the left button pans, q quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			return tui.Run(tui.Options{
				Scene:    cfg.SceneOrDefault(),
				Style:    cfg.Style(),
				Viewport: cfg.ViewportOptions(),
			})
		},
	}
}
