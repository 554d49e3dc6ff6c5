package main

import (
	"fmt"
	"text/tabwriter"

	"hive/pkg/routing"

	"github.com/spf13/cobra"
)

// newRoutesCmd creates the "hive routes" subcommand.
func newRoutesCmd() *cobra.Command {
	var testTask string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show routing rules",
		Long:  "Lists the routing rules in match order plus the default worker.\nWith --test, shows where a given task text would be routed and in which mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			router, err := buildRouter(cfg)
			if err != nil {
				return err
			}

			if testTask != "" {
				worker, err := router.Route(testTask)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", testTask, worker, routing.Classify(testTask))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tWORKER")
			for _, r := range cfg.Routing {
				fmt.Fprintf(w, "%s\t%s\n", r.Pattern, r.Worker)
			}
			fmt.Fprintf(w, "(default)\t%s\n", cfg.DefaultWorker)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&testTask, "test", "", "show where this task text would route")
	return cmd
}
