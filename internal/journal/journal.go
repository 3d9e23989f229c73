package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"manifestsim/logging"
)

// Package journal persists a run's instrumentation to SQLite: one row per
// run, one summary row per tick, and the full structured event stream. It is
// strictly a harness concern; the core engine never depends on it. Writes go
// through a single writer goroutine so the sim loop never blocks on fsync —
// a full buffer drops the write and counts it instead.

// Telemetry receives drop notifications so the harness can surface degraded
// instrumentation without the journal importing a metrics package.
type Telemetry interface {
	RecordJournalDrop(metric string)
}

// RunMeta identifies a run in the runs table.
type RunMeta struct {
	Scenario string
	Seed     string
}

// TickSummary is one per-tick row of aggregate load.
type TickSummary struct {
	Tick          uint64
	Population    int
	Employed      int
	Deaths        int
	Births        int
	TradesCleared int
	NonConverged  int
	MeanFoodSat   float64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvents
)

type req struct {
	kind   reqKind
	tick   TickSummary
	events []logging.Event
	atTick uint64
}

// Journal is the SQLite-backed run journal.
type Journal struct {
	db    *sql.DB
	runID string

	ch     chan req
	wg     sync.WaitGroup
	closed atomic.Bool

	policy    *Policy
	telemetry Telemetry
}

// Open creates (or reuses) the journal database at path and registers a new
// run row with a fresh run UUID.
func Open(path string, meta RunMeta, telemetry Telemetry) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	runID := uuid.New().String()
	if _, err := db.Exec(
		`INSERT INTO runs (id, scenario, seed, started_at) VALUES (?, ?, ?, ?)`,
		runID, meta.Scenario, meta.Seed, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &Journal{
		db:        db,
		runID:     runID,
		ch:        make(chan req, 4096),
		policy:    NewPolicy(),
		telemetry: telemetry,
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()
	return j, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style workload; NORMAL trades a little durability
	// for not stalling the writer on every commit.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			seed TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			population INTEGER NOT NULL,
			employed INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			births INTEGER NOT NULL,
			trades_cleared INTEGER NOT NULL,
			non_converged INTEGER NOT NULL,
			mean_food_sat REAL NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			category TEXT NOT NULL,
			severity INTEGER NOT NULL,
			actor_kind TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			payload TEXT,
			PRIMARY KEY (run_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events (run_id, type);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("journal: schema: %w", err)
		}
	}
	return nil
}

// RunID reports the UUID minted for this run's rows.
func (j *Journal) RunID() string { return j.runID }

// RecordTick enqueues a per-tick summary row.
func (j *Journal) RecordTick(summary TickSummary) {
	j.enqueue(req{kind: reqTick, tick: summary}, StreamTicks)
}

// AppendEvents enqueues a tick's event batch.
func (j *Journal) AppendEvents(tick uint64, events []logging.Event) {
	if len(events) == 0 {
		return
	}
	batch := make([]logging.Event, len(events))
	copy(batch, events)
	j.enqueue(req{kind: reqEvents, atTick: tick, events: batch}, StreamEvents)
}

func (j *Journal) enqueue(r req, stream string) {
	if j == nil || j.closed.Load() {
		return
	}
	select {
	case j.ch <- r:
		j.policy.NoteWrite(stream)
	default:
		j.policy.NoteDrop(stream)
		if j.telemetry != nil {
			j.telemetry.RecordJournalDrop(stream)
		}
	}
}

// DropSignals returns the graded loss reports queued since the last call.
func (j *Journal) DropSignals() ([]DropSignal, bool) {
	return j.policy.Consume()
}

func (j *Journal) loop() {
	for r := range j.ch {
		switch r.kind {
		case reqTick:
			j.writeTick(r.tick)
		case reqEvents:
			j.writeEvents(r.atTick, r.events)
		}
	}
}

func (j *Journal) writeTick(s TickSummary) {
	_, err := j.db.Exec(
		`INSERT OR REPLACE INTO ticks
		 (run_id, tick, population, employed, deaths, births, trades_cleared, non_converged, mean_food_sat)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, s.Tick, s.Population, s.Employed, s.Deaths, s.Births, s.TradesCleared, s.NonConverged, s.MeanFoodSat,
	)
	if err != nil {
		j.policy.NoteDrop(StreamTicks)
	}
}

func (j *Journal) writeEvents(tick uint64, events []logging.Event) {
	tx, err := j.db.Begin()
	if err != nil {
		j.policy.NoteDrop(StreamEvents)
		return
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO events
		 (run_id, tick, seq, type, category, severity, actor_kind, actor_id, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		_ = tx.Rollback()
		j.policy.NoteDrop(StreamEvents)
		return
	}
	defer stmt.Close()

	for seq, e := range events {
		payload, _ := json.Marshal(e.Payload)
		if _, err := stmt.Exec(
			j.runID, tick, seq, string(e.Type), e.Category, int(e.Severity),
			string(e.Actor.Kind), e.Actor.ID, string(payload),
		); err != nil {
			_ = tx.Rollback()
			j.policy.NoteDrop(StreamEvents)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		j.policy.NoteDrop(StreamEvents)
	}
}

// Close drains pending writes and closes the database.
func (j *Journal) Close(ctx context.Context) error {
	if j == nil || !j.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(j.ch)
	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return j.db.Close()
}
