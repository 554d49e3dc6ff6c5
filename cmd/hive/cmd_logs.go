package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"hive/pkg/decode"
	"hive/pkg/history"

	"github.com/spf13/cobra"
)

// newLogsCmd creates the "hive logs" subcommand.
func newLogsCmd() *cobra.Command {
	var (
		worker string
		limit  int
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent dispatch history",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := history.DefaultPath()
			if path == "" {
				return fmt.Errorf("cannot locate home directory for dispatch history")
			}
			log, err := history.Open(path)
			if err != nil {
				return err
			}
			defer log.Close()

			opts := history.QueryOpts{Worker: worker, Limit: limit}
			if since > 0 {
				after := time.Now().Add(-since)
				opts.After = &after
			}
			dispatches, err := log.Recent(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tWORKER\tMODE\tOK\tTASK\tRESULT")
			for _, d := range dispatches {
				ok := "yes"
				if !d.Success {
					ok = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.CreatedAt.Local().Format("2006-01-02 15:04"),
					d.Worker, d.Mode, ok,
					decode.Preview(d.Task, 1),
					decode.Preview(d.Result, 1))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&worker, "worker", "", "filter by worker name")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show")
	cmd.Flags().DurationVar(&since, "since", 0, "only dispatches newer than this age")
	return cmd
}
