package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// newStatusCmd creates the "hive status" subcommand.
func newStatusCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show fleet health",
		Long:  "Health-checks every configured worker and prints a one-line summary per worker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			hive := buildHive(cfg)

			glyphs := !plain && isatty.IsTerminal(os.Stdout.Fd())
			online, offline := "●", "○"
			if !glyphs {
				online, offline = "up", "down"
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WORKER\tSTATE\tURL\tSESSION\tDETAIL")
			for _, st := range hive.StatusAll(cmd.Context()) {
				mark, detail := online, ""
				if !st.Online {
					mark, detail = offline, st.Error
				} else if st.Uptime > 0 {
					detail = fmt.Sprintf("up %.0fs", st.Uptime)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.Name, mark, st.URL, st.SessionID, detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "force plain ASCII output")
	return cmd
}
