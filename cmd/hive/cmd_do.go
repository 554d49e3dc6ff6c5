package main

import (
	"fmt"
	"strings"
	"time"

	"hive/pkg/client"
	"hive/pkg/routing"

	"github.com/spf13/cobra"
)

// newDoCmd creates the "hive do" subcommand.
func newDoCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "do <task...>",
		Short: "Route a task and pick the execution mode automatically",
		Long:  "Picks a worker by routing pattern, then classifies the task:\nsimple inspection requests run as fast pass-through commands,\nanything corrective or ambiguous goes through agent reasoning.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			router, err := buildRouter(cfg)
			if err != nil {
				return err
			}
			task := strings.Join(args, " ")
			worker, err := router.Route(task)
			if err != nil {
				return err
			}
			mode := routing.Classify(task)
			fmt.Fprintf(cmd.ErrOrStderr(), "-> %s (%s)\n", worker, mode)
			return dispatch(cmd, buildHive(cfg), worker, task, mode, client.ExecuteOptions{
				Timeout: timeout,
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-task timeout (default 2m direct, 5m reasoning)")
	return cmd
}
