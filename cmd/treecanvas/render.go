package main

import (
	"fmt"
	"log"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/recera/treecanvas/cmd/treecanvas/internal/config"
	"github.com/recera/treecanvas/pkg/events"
	"github.com/recera/treecanvas/pkg/geom"
	"github.com/recera/treecanvas/pkg/render"
	"github.com/recera/treecanvas/pkg/viewport"
	"github.com/recera/treecanvas/pkg/widget"
)

type renderOptions struct {
	output string
	width  float64
	height float64
	zoom   float64
	panX   float64
	panY   float64
	script string
}

func newRenderCommand() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a PNG snapshot",
		Long: `Draws the scene headlessly. The view comes from --zoom/--pan-x/--pan-y, or
from replaying a YAML event script through the viewport controller.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			raster, err := renderSnapshot(cfg, opts)
			if err != nil {
				return err
			}
			if err := raster.WritePNG(opts.output); err != nil {
				return err
			}
			log.Printf("🖼️  Wrote %s (%dx%d)", opts.output, raster.Image().Rect.Dx(), raster.Image().Rect.Dy())
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "treecanvas.png", "Output PNG file")
	cmd.Flags().Float64Var(&opts.width, "width", 800, "Canvas width in CSS pixels")
	cmd.Flags().Float64Var(&opts.height, "height", 600, "Canvas height in CSS pixels")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", 0, "Zoom factor (default 1, or minZoom when larger)")
	cmd.Flags().Float64Var(&opts.panX, "pan-x", 0, "Horizontal pan in device pixels")
	cmd.Flags().Float64Var(&opts.panY, "pan-y", 0, "Vertical pan in device pixels")
	cmd.Flags().StringVar(&opts.script, "events", "", "YAML event script to replay before drawing")
	cmd.MarkFlagsMutuallyExclusive("events", "zoom")
	cmd.MarkFlagsMutuallyExclusive("events", "pan-x")
	cmd.MarkFlagsMutuallyExclusive("events", "pan-y")

	return cmd
}

func renderSnapshot(cfg *config.Config, opts renderOptions) (*render.Raster, error) {
	css := geom.Sz(opts.width, opts.height)
	scene := cfg.SceneOrDefault()
	style := cfg.Style()

	if opts.script == "" {
		for name, v := range map[string]float64{"zoom": opts.zoom, "pan-x": opts.panX, "pan-y": opts.panY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%s must be finite, got %v", name, v)
			}
		}
		zoom := opts.zoom
		if zoom == 0 {
			zoom = viewport.InitialView(cfg.ViewportOptions()).Zoom
		}
		if zoom < cfg.MinZoom {
			return nil, fmt.Errorf("zoom %v is below the minimum %v", zoom, cfg.MinZoom)
		}
		device := css.Scale(cfg.Quality)
		raster := render.NewRaster(device)
		r := &render.Renderer{Scene: scene, Style: style}
		view := viewport.ViewState{Zoom: zoom, Pan: geom.Pt(opts.panX, opts.panY)}
		r.Draw(raster, view, device)
		return raster, nil
	}

	script, err := events.LoadScript(opts.script)
	if err != nil {
		return nil, err
	}
	if !script.Size.IsEmpty() {
		css = script.Size
	}

	window, canvas := events.NewBus(), events.NewBus()
	raster := render.NewRaster(css.Scale(cfg.Quality))
	w := widget.New(window, &widget.Options{
		Scene:    &scene,
		Style:    &style,
		Viewport: cfg.ViewportOptions(),
		Logger:   slog.Default(),
	})
	defer w.Close()

	w.Mount(canvas, raster, css)
	handled := script.Replay(canvas, window)

	view := w.Controller().Peek()
	log.Printf("🎬 Replayed %d events (%d handled): zoom %.3f, pan %s",
		len(script.Events), handled, view.Zoom, view.Pan)
	return raster, nil
}
