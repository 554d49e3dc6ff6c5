package main

import (
	"fmt"
	"strings"
	"time"

	"hive/pkg/client"
	"hive/pkg/decode"
	"hive/pkg/history"

	"github.com/spf13/cobra"
)

// newBroadcastCmd creates the "hive broadcast" subcommand.
func newBroadcastCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "broadcast <task...>",
		Short: "Run the same task on every worker",
		Long:  "Executes the task on all configured workers concurrently and prints each result\nin configuration order. Exits non-zero if any worker fails.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			hive := buildHive(cfg)
			task := strings.Join(args, " ")

			failed := 0
			for _, res := range hive.Broadcast(cmd.Context(), task, client.ExecuteOptions{Timeout: timeout}) {
				recordDispatch(cmd, history.Dispatch{
					Worker:  res.Worker,
					Mode:    "broadcast",
					Task:    task,
					Success: res.Success,
					Result:  res.Result,
					Elapsed: res.ExecutionTime,
				})
				mark := "ok"
				if !res.Success {
					mark = "failed"
					failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "=== %s (%s) ===\n%s\n\n",
					res.Worker, mark, decode.RenderPlain(decode.DecodeResult(res.Result)))
			}
			if failed > 0 {
				return fmt.Errorf("%d worker(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-task timeout (default 5m)")
	return cmd
}
