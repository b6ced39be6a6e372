package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lesson.view/internal/align"
	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/host/memhost"
	"github.com/banshee-data/lesson.view/internal/lesson"
	"github.com/banshee-data/lesson.view/internal/report"
)

func sweepCmd() *cobra.Command {
	var anchor, out string
	var step float64
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Plot anchor distance against model yaw for the demo model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadLesson(rt.ConfigPath)
			if err != nil {
				return err
			}
			if anchor == "" {
				anchor = cfg.GetAnchorMesh()
			}
			if step <= 0 {
				step = cfg.GetAlignStepDegrees()
			}

			w := memhost.NewWorld()
			m := lesson.NewModel(w.Scene, w.Root, w.Groups, cfg.GetModelAnimation())
			aligner := &align.Aligner{StepDegrees: step, FPS: cfg.GetFPS()}
			res, err := aligner.Sweep(m, anchor, w.Camera.Position())
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.PlotSweep(f, anchor, res); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: closest at %.1f deg (distance %.3f, %d samples), wrote %s\n",
				anchor, res.BestRotation*180/math.Pi, res.BestDistance, len(res.Samples), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor mesh (default: lesson anchor)")
	cmd.Flags().Float64Var(&step, "step", 0, "sweep step in degrees (default: lesson step)")
	cmd.Flags().StringVarP(&out, "out", "o", "sweep.png", "output file")
	return cmd
}
