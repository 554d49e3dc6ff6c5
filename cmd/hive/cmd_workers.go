package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newWorkersCmd creates the "hive workers" subcommand.
func newWorkersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List configured workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WORKER\tURL\tCAPABILITIES\tTAGS")
			for _, worker := range cfg.Workers {
				name := worker.Name
				if name == cfg.DefaultWorker {
					name += " (default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					name, worker.URL(),
					strings.Join(worker.Capabilities, ","),
					strings.Join(worker.Tags, ","))
			}
			return w.Flush()
		},
	}
}
