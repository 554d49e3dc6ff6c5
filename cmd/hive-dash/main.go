// Package main implements the hive-dash live fleet dashboard.
package main

import (
	"flag"
	"fmt"
	"os"

	"hive/pkg/config"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: search ~/.hive and cwd)")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("HIVE_CONFIG")
	}
	if path == "" {
		path = config.FindFile()
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hive-dash: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Workers) == 0 {
		fmt.Fprintln(os.Stderr, "hive-dash: no workers configured; create ~/.hive/config.yaml or pass -config")
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(cfg, path), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
