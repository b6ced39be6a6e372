package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lesson.view/internal/api"
	"github.com/banshee-data/lesson.view/internal/app"
)

func navCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:       "nav (state|scenes|next|prev|goto NAME|xr on|off)",
		Short:     "Drive a running lesson server",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"state", "scenes", "next", "prev", "goto", "xr"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := api.NewClient(server, nil)
			ctx := cmd.Context()
			var st app.State
			var err error
			switch args[0] {
			case "state":
				st, err = c.State(ctx)
			case "scenes":
				names, err := c.Scenes(ctx)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			case "next":
				st, err = c.Next(ctx)
			case "prev":
				st, err = c.Prev(ctx)
			case "goto":
				if len(args) != 2 {
					return fmt.Errorf("goto needs a scene name")
				}
				st, err = c.GoTo(ctx, args[1])
			case "xr":
				if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
					return fmt.Errorf("xr needs on or off")
				}
				st, err = c.SetXR(ctx, args[1] == "on")
			default:
				return fmt.Errorf("unknown nav action %q", args[0])
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://"+rt.Listen+"/api", "lesson server base URL")
	return cmd
}
