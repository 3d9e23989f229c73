package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"manifestsim/internal/app"
)

func main() {
	var cfg app.Config
	flag.StringVar(&cfg.ScenarioPath, "scenario", "", "path to the scenario YAML descriptor")
	flag.IntVar(&cfg.Ticks, "ticks", 200, "number of ticks to run")
	flag.StringVar(&cfg.SeedOverride, "seed", "", "override the scenario's RNG seed")
	flag.StringVar(&cfg.JournalPath, "journal", "", "SQLite journal path (empty disables persistence)")
	flag.StringVar(&cfg.EventLogPath, "events", "", "JSON-lines event log path (empty disables)")
	flag.StringVar(&cfg.SnapshotDir, "snapshot-dir", "", "directory for periodic snapshot archives")
	flag.IntVar(&cfg.SnapshotEvery, "snapshot-every", 0, "archive a snapshot every N ticks (0 disables)")
	flag.Parse()

	if cfg.ScenarioPath == "" {
		fmt.Fprintln(os.Stderr, "-scenario is required")
		flag.Usage()
		os.Exit(2)
	}
	if cfg.Ticks <= 0 {
		fmt.Fprintln(os.Stderr, "-ticks must be positive")
		os.Exit(2)
	}

	if err := app.Run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "manifest-sim: %v\n", err)
		os.Exit(1)
	}
}
