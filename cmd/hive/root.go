package main

import (
	"fmt"

	"hive/internal/appversion"
	"hive/pkg/client"
	"hive/pkg/config"
	"hive/pkg/routing"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root hive command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hive",
		Short:         "Hive worker fleet commander",
		Long:          "hive dispatches tasks to a fleet of remote workers.\nIt routes tasks by pattern, tracks live worker state, and keeps a dispatch history.",
		Version:       fmt.Sprintf("hive %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringP("config", "c", "", "path to config file (default: search ~/.hive and cwd)")

	cmd.AddCommand(
		newStatusCmd(),
		newSendCmd(),
		newAskCmd(),
		newDoCmd(),
		newBroadcastCmd(),
		newWorkersCmd(),
		newRoutesCmd(),
		newSessionCmd(),
		newLogsCmd(),
		newDashCmd(),
	)

	return cmd
}

// loadConfig resolves the --config flag (or the default search path) into a
// parsed fleet configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("read config flag: %w", err)
	}
	if path == "" {
		path = config.FindFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if len(cfg.Workers) == 0 {
		return nil, fmt.Errorf("no workers configured; create ~/.hive/config.yaml or pass --config")
	}
	return cfg, nil
}

// buildHive turns a configuration into per-worker task clients.
func buildHive(cfg *config.Config) *client.Hive {
	clients := make([]*client.Client, 0, len(cfg.Workers))
	for _, w := range cfg.Workers {
		clients = append(clients, client.New(w.Name, w.Host, w.Port))
	}
	return client.NewHive(clients)
}

// buildRouter compiles the configuration's routing rules.
func buildRouter(cfg *config.Config) (*routing.Router, error) {
	rules := make([]routing.Rule, 0, len(cfg.Routing))
	for _, r := range cfg.Routing {
		rules = append(rules, routing.Rule{Pattern: r.Pattern, Worker: r.Worker})
	}
	return routing.NewRouter(rules, cfg.DefaultWorker)
}
