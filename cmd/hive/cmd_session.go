package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newSessionCmd creates the "hive session" subcommand and its children.
func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset worker sessions",
	}
	cmd.AddCommand(newSessionListCmd(), newSessionNewCmd())
	return cmd
}

// newSessionListCmd creates "hive session list".
func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show each worker's current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			hive := buildHive(cfg)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WORKER\tSESSION\tTASKS\tCREATED")
			for _, name := range hive.Names() {
				c, _ := hive.Client(name)
				info, err := c.Session(cmd.Context())
				if err != nil {
					fmt.Fprintf(w, "%s\t-\t-\t%v\n", name, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, info.SessionID, info.TaskCount, info.CreatedAt)
			}
			return w.Flush()
		},
	}
}

// newSessionNewCmd creates "hive session new".
func newSessionNewCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "new [worker]",
		Short: "Start a fresh session on a worker (or all workers)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			hive := buildHive(cfg)

			var targets []string
			switch {
			case all:
				targets = hive.Names()
			case len(args) == 1:
				targets = args
			default:
				return fmt.Errorf("name a worker or pass --all")
			}

			for _, name := range targets {
				c, ok := hive.Client(name)
				if !ok {
					return fmt.Errorf("unknown worker %q", name)
				}
				if err := c.NewSession(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: session reset\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "reset every worker's session")
	return cmd
}
