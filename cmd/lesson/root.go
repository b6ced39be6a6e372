package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/version"
)

// rt starts from the environment; flags override it.
var rt config.Runtime

func newRootCmd() (*cobra.Command, error) {
	var err error
	rt, err = config.LoadRuntime()
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:          "lesson",
		Short:        "Headless AR lesson viewer",
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&rt.ConfigPath, "config", rt.ConfigPath, "lesson JSON file (default: embedded lesson)")
	root.PersistentFlags().StringVar(&rt.DBPath, "db", rt.DBPath, "progress database path")

	root.AddCommand(serveCmd(), validateCmd(), reportCmd(), sweepCmd(), navCmd())
	return root, nil
}

func Execute() error {
	root, err := newRootCmd()
	if err != nil {
		return err
	}
	return root.Execute()
}
