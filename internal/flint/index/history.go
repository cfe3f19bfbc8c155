package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// History records every run and case outcome in sqlite, unlike the cache
// index which only keeps the latest. All writes go through one writer
// goroutine.
type History struct {
	db *sql.DB

	runID int64

	ch   chan outcomeRow
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type outcomeRow struct {
	Name       string
	Outcome    string
	Detail     string
	Ticks      uint64
	DurationMS int64
}

// OpenHistory opens (or creates) the history database and registers a new
// run row.
func OpenHistory(path, engineVersion string) (*History, error) {
	if path == "" {
		return nil, fmt.Errorf("empty history db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
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

	res, err := db.Exec(`INSERT INTO runs(started_at, engine_version) VALUES(?,?)`,
		time.Now().UTC().Format(time.RFC3339Nano), engineVersion)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	h := &History{db: db, runID: runID, ch: make(chan outcomeRow, 1024)}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.loop()
	}()
	return h, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style workload.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			engine_version TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT,
			ticks INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_name ON outcomes(name, run_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record enqueues one case outcome. It never blocks: if the writer falls
// behind the row is dropped; the JSON index remains authoritative.
func (h *History) Record(name, outcome, detail string, ticks uint64, duration time.Duration) {
	if h == nil || h.closed.Load() {
		return
	}
	row := outcomeRow{
		Name:       name,
		Outcome:    outcome,
		Detail:     detail,
		Ticks:      ticks,
		DurationMS: duration.Milliseconds(),
	}
	select {
	case h.ch <- row:
	default:
	}
}

func (h *History) Close() error {
	var err error
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.ch)
		h.wg.Wait()
		err = h.db.Close()
	})
	return err
}

func (h *History) loop() {
	insert, err := h.db.Prepare(`INSERT OR REPLACE INTO outcomes(run_id,name,outcome,detail,ticks,duration_ms,recorded_at) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		for range h.ch {
		}
		return
	}
	defer insert.Close()

	for row := range h.ch {
		_, _ = insert.Exec(
			h.runID,
			row.Name,
			row.Outcome,
			row.Detail,
			int64(row.Ticks),
			row.DurationMS,
			time.Now().UTC().Format(time.RFC3339Nano),
		)
	}
}

// LastOutcome reads the most recent recorded outcome for a test name.
func (h *History) LastOutcome(name string) (string, bool, error) {
	var outcome string
	err := h.db.QueryRow(
		`SELECT outcome FROM outcomes WHERE name = ? ORDER BY run_id DESC LIMIT 1`, name,
	).Scan(&outcome)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return outcome, true, nil
}
