package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lesson.view/internal/config"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [lesson.json]",
		Short: "Load and validate a lesson file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rt.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := config.LoadLesson(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d scenes, starts at %s\n", cfg.GetTitle(), len(cfg.Scenes), cfg.GetInitialScene())
			for _, sc := range cfg.Scenes {
				fmt.Fprintf(out, "  %-16s %s\n", sc.Name, sc.Kind)
			}
			return nil
		},
	}
}
