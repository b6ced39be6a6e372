package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/progress"
	"github.com/banshee-data/lesson.view/internal/report"
)

func reportCmd() *cobra.Command {
	var session, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write an HTML dwell-time chart for a recorded session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := progress.Open(rt.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if session == "" {
				if session, err = store.LatestSession(); err != nil {
					return err
				}
			}
			dwell, err := store.Summary(session)
			if err != nil {
				return err
			}
			cfg, err := config.LoadLesson(rt.ConfigPath)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.DwellChart(f, cfg.GetTitle(), dwell); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s for session %s (%d scenes)\n", out, session, len(dwell))
			return nil
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "session id (default: most recent)")
	cmd.Flags().StringVarP(&out, "out", "o", "report.html", "output file")
	return cmd
}
