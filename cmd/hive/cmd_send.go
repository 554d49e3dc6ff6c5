package main

import (
	"strings"
	"time"

	"hive/pkg/client"
	"hive/pkg/routing"

	"github.com/spf13/cobra"
)

// newSendCmd creates the "hive send" subcommand.
func newSendCmd() *cobra.Command {
	var (
		newSession bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <worker> <task...>",
		Short: "Send a task to a named worker",
		Long:  "Bypasses routing and runs the task on the given worker through the agent-reasoning path.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			worker, task := args[0], strings.Join(args[1:], " ")
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
