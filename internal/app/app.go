package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/trace"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"manifestsim/internal/journal"
	"manifestsim/internal/observability"
	"manifestsim/internal/scenario"
	"manifestsim/internal/sim"
	"manifestsim/internal/telemetry"
	"manifestsim/logging"
	loggingSinks "manifestsim/logging/sinks"
	"manifestsim/logging/simulation"
)

// Config is the harness configuration assembled from CLI flags.
type Config struct {
	ScenarioPath string
	Ticks        int
	SeedOverride string

	// JournalPath enables the SQLite run journal when non-empty.
	JournalPath string
	// EventLogPath enables the JSON-lines event sink when non-empty.
	EventLogPath string
	// SnapshotDir/SnapshotEvery enable periodic zstd snapshot archives.
	SnapshotDir   string
	SnapshotEvery int

	Logger        telemetry.Logger
	Observability observability.Config
}

// Run executes a full simulation run: load scenario, wire logging and
// persistence, advance Ticks ticks with invariant checks, and print a
// summary. Any returned error maps to a non-zero exit in the CLI.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	observabilityCfg := cfg.Observability
	if raw := os.Getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			observabilityCfg.EnablePprofTrace = value
		} else {
			logger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}
	if observabilityCfg.EnablePprofTrace {
		stop, err := startTrace(observabilityCfg.TracePath, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	descriptor, err := scenario.Load(cfg.ScenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	if cfg.SeedOverride != "" {
		descriptor.Seed = cfg.SeedOverride
	}
	if raw := os.Getenv("MANIFESTSIM_SEED"); raw != "" && cfg.SeedOverride == "" {
		descriptor.Seed = raw
	}

	router, closeRouter, err := buildRouter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRouter(ctx)

	metrics := logging.NewMetrics()
	simulator, err := sim.WithScenario(descriptor, sim.Options{Publisher: router, Metrics: metrics})
	if err != nil {
		return fmt.Errorf("build simulation: %w", err)
	}

	var runJournal *journal.Journal
	if cfg.JournalPath != "" {
		runJournal, err = journal.Open(cfg.JournalPath, journal.RunMeta{
			Scenario: descriptor.Name,
			Seed:     descriptor.Seed,
		}, journalTelemetry{metrics: metrics})
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() {
			if cerr := runJournal.Close(context.Background()); cerr != nil {
				logger.Printf("failed to close journal: %v", cerr)
			}
		}()
		logger.Printf("journal run %s -> %s", runJournal.RunID(), cfg.JournalPath)
	}

	started := time.Now()
	eventsPersisted := 0

	for i := 0; i < cfg.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := simulator.AdvanceTick(ctx); err != nil {
			return fmt.Errorf("tick %d: %w", simulator.Tick()+1, err)
		}
		tick := simulator.Tick()

		if err := simulator.CheckInvariants(); err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}

		tickEvents := simulator.Events(tick - 1)
		if runJournal != nil {
			runJournal.RecordTick(summarize(tick, tickEvents))
			runJournal.AppendEvents(tick, tickEvents)
			eventsPersisted += len(tickEvents)
			if signals, tripped := runJournal.DropSignals(); tripped {
				for _, sig := range signals {
					logger.Printf("journal degraded (%s): stream=%s dropped=%d of %d writes", sig.Class, sig.Stream, sig.Dropped, sig.Writes)
				}
			}
		}
		simulator.PruneEvents(tick)

		if cfg.SnapshotDir != "" && cfg.SnapshotEvery > 0 && tick%uint64(cfg.SnapshotEvery) == 0 {
			if err := writeArchive(cfg.SnapshotDir, descriptor.Name, runJournal, simulator); err != nil {
				logger.Printf("snapshot archive at tick %d failed: %v", tick, err)
			}
		}
	}

	final := simulator.Snapshot()
	population := 0
	for _, s := range final.Settlements {
		population += s.Population
	}
	logger.Printf("completed %s ticks in %s: population %s, %s events persisted",
		humanize.Comma(int64(cfg.Ticks)), time.Since(started).Round(time.Millisecond),
		humanize.Comma(int64(population)), humanize.Comma(int64(eventsPersisted)))

	return nil
}

func buildRouter(cfg Config, logger telemetry.Logger) (*logging.Router, func(context.Context), error) {
	logConfig := logging.DefaultConfig()
	named := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}

	var eventLog *os.File
	if cfg.EventLogPath != "" {
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		f, err := os.OpenFile(cfg.EventLogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		eventLog = f
		named = append(named, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(f, logConfig.JSON.FlushInterval)})
	}

	router, err := logging.NewRouter(nil, logConfig, named)
	if err != nil {
		if eventLog != nil {
			_ = eventLog.Close()
		}
		return nil, nil, fmt.Errorf("construct logging router: %w", err)
	}

	closeFn := func(ctx context.Context) {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
		if eventLog != nil {
			_ = eventLog.Close()
		}
	}
	return router, closeFn, nil
}

// summarize pulls the engine's tick_completed payload out of the tick's
// event batch; a missing summary degrades to a tick-only row rather than
// failing the run.
func summarize(tick uint64, events []logging.Event) journal.TickSummary {
	summary := journal.TickSummary{Tick: tick}
	for _, e := range events {
		if e.Type != simulation.EventTickCompleted {
			continue
		}
		if payload, ok := e.Payload.(simulation.TickCompletedPayload); ok {
			summary.Population = payload.Population
			summary.Employed = payload.Employed
			summary.Deaths = payload.Deaths
			summary.Births = payload.Births
			summary.TradesCleared = payload.TradesCleared
			summary.NonConverged = payload.NonConverged
			summary.MeanFoodSat = payload.MeanFoodSat
		}
	}
	return summary
}

func writeArchive(dir, scenarioName string, runJournal *journal.Journal, simulator *sim.Simulation) error {
	runID := ""
	if runJournal != nil {
		runID = runJournal.RunID()
	}
	tick := simulator.Tick()
	path := filepath.Join(dir, fmt.Sprintf("snap-%06d.zst", tick))
	return journal.WriteSnapshot(path, journal.ArchiveHeader{
		RunID: runID, Scenario: scenarioName, Tick: tick,
	}, simulator.Snapshot())
}

func startTrace(path string, logger telemetry.Logger) (func(), error) {
	if path == "" {
		path = "trace.out"
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start trace: %w", err)
	}
	logger.Printf("execution trace -> %s", path)
	return func() {
		trace.Stop()
		_ = f.Close()
	}, nil
}

// journalTelemetry surfaces journal drops as a metrics counter.
type journalTelemetry struct {
	metrics *logging.Metrics
}

func (t journalTelemetry) RecordJournalDrop(metric string) {
	t.metrics.TelemetryAdd("journal_drops_"+metric, 1)
}
