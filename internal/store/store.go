// Package store implements the result-store callback interface
// (spec.md §6) and a concrete sqlite-backed implementation, adapted
// from a schema-on-open pattern: one database handle, one migrate call on
// Open, and plain Exec calls for every insert.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/reeflab/coralmcda/internal/runner"
	"github.com/reeflab/coralmcda/internal/scenario"
)

// ResultStore is spec.md §6's result-store callback interface: the batch
// driver writes each scenario's result here as it completes, and calls
// Finalize once the whole table has been written.
type ResultStore interface {
	WriteScenario(index int, params scenario.Params, result *runner.Result) error
	Finalize(run RunRecord) error
}

// RunRecord is the invocation metadata recorded once per batch run:
// spec.md §6's "run(domain, params, reps) -> Domain with recorded
// invocation timestamp" envelope, persisted alongside the per-scenario
// results it produced.
type RunRecord struct {
	ID            string
	StartedAtUTC  string
	FinishedAtUTC string
	ScenarioCount int
	Reps          int
	Epsilon       float64
}

// NewRunRecord allocates a RunRecord with a fresh random id, per
// google/uuid's v4 default.
func NewRunRecord(startedAtUTC string, scenarioCount, reps int, epsilon float64) RunRecord {
	return RunRecord{
		ID:            uuid.NewString(),
		StartedAtUTC:  startedAtUTC,
		ScenarioCount: scenarioCount,
		Reps:          reps,
		Epsilon:       epsilon,
	}
}

// SQLiteStore is the concrete sqlite-backed ResultStore.
type SQLiteStore struct {
	conn *sqlx.DB
	run  RunRecord
}

// Open opens or creates a sqlite database at path, running migrations,
// and records run as this connection's invocation metadata.
func Open(path string, run RunRecord) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &SQLiteStore{conn: conn, run: run}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.insertRun(run); err != nil {
		conn.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at_utc TEXT NOT NULL,
		finished_at_utc TEXT,
		scenario_count INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		epsilon REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		run_id TEXT NOT NULL,
		scenario_index INTEGER NOT NULL,
		rcp TEXT NOT NULL,
		mcda_method INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		failed INTEGER NOT NULL,
		t INTEGER NOT NULL,
		n INTEGER NOT NULL,
		r INTEGER NOT NULL,
		raw_cover BLOB NOT NULL,
		seed_log BLOB NOT NULL,
		fog_log BLOB NOT NULL,
		shade_log BLOB NOT NULL,
		site_ranks BLOB NOT NULL,
		PRIMARY KEY (run_id, scenario_index)
	);

	CREATE INDEX IF NOT EXISTS idx_scenarios_run ON scenarios(run_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStore) insertRun(run RunRecord) error {
	_, err := s.conn.Exec(
		`INSERT INTO runs (id, started_at_utc, scenario_count, reps, epsilon) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAtUTC, run.ScenarioCount, run.Reps, run.Epsilon,
	)
	return err
}

// WriteScenario persists one scenario's result, replacing any prior row
// at the same index (the batch driver guarantees each index is written
// at most once per run, but a retried batch may overwrite).
func (s *SQLiteStore) WriteScenario(index int, params scenario.Params, result *runner.Result) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	failed := 0
	if result.Failed {
		failed = 1
	}

	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO scenarios
			(run_id, scenario_index, rcp, mcda_method, params_json, failed, t, n, r,
			 raw_cover, seed_log, fog_log, shade_log, site_ranks)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.run.ID, index, params.RCP, params.MCDAMethod, string(paramsJSON), failed,
		result.T, result.N, result.R,
		encodeFloats(result.RawCover), encodeFloats(result.SeedLog),
		encodeFloats(result.FogLog), encodeFloats(result.ShadeLog),
		encodeFloats(result.SiteRanks),
	)
	if err != nil {
		return fmt.Errorf("insert scenario %d: %w", index, err)
	}
	return nil
}

// Finalize records the run's completion timestamp.
func (s *SQLiteStore) Finalize(run RunRecord) error {
	_, err := s.conn.Exec(
		`UPDATE runs SET finished_at_utc = ? WHERE id = ?`,
		run.FinishedAtUTC, s.run.ID,
	)
	return err
}

// ReadScenario reconstructs one scenario's result from storage, the
// inverse of WriteScenario.
func (s *SQLiteStore) ReadScenario(index int) (*runner.Result, error) {
	var row struct {
		T         int    `db:"t"`
		N         int    `db:"n"`
		R         int    `db:"r"`
		RawCover  []byte `db:"raw_cover"`
		SeedLog   []byte `db:"seed_log"`
		FogLog    []byte `db:"fog_log"`
		ShadeLog  []byte `db:"shade_log"`
		SiteRanks []byte `db:"site_ranks"`
	}
	err := s.conn.Get(&row,
		`SELECT t, n, r, raw_cover, seed_log, fog_log, shade_log, site_ranks
		 FROM scenarios WHERE run_id = ? AND scenario_index = ?`,
		s.run.ID, index)
	if err != nil {
		return nil, fmt.Errorf("read scenario %d: %w", index, err)
	}
	return &runner.Result{
		T: row.T, N: row.N, R: row.R,
		RawCover:  decodeFloats(row.RawCover),
		SeedLog:   decodeFloats(row.SeedLog),
		FogLog:    decodeFloats(row.FogLog),
		ShadeLog:  decodeFloats(row.ShadeLog),
		SiteRanks: decodeFloats(row.SiteRanks),
	}, nil
}

func encodeFloats(vals []float64) []byte {
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) []float64 {
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}
