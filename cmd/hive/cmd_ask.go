package main

import (
	"fmt"
	"strings"
	"time"

	"hive/pkg/client"
	"hive/pkg/routing"

	"github.com/spf13/cobra"
)

// newAskCmd creates the "hive ask" subcommand.
func newAskCmd() *cobra.Command {
	var (
		newSession bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask <task...>",
		Short: "Route a task and run it with agent reasoning",
		Long:  "Picks a worker by routing pattern and runs the task through the agent-reasoning path,\nregardless of how simple the task text looks.",
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
			fmt.Fprintf(cmd.ErrOrStderr(), "-> %s (reasoning)\n", worker)
			return dispatch(cmd, buildHive(cfg), worker, task, routing.ModeReasoning, client.ExecuteOptions{
				NewSession: newSession,
				Timeout:    timeout,
			})
		},
	}

	cmd.Flags().BoolVar(&newSession, "new-session", false, "start a fresh session before the task")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-task timeout (default 5m)")
	return cmd
}
