package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
	"zonix/internal/performance"
)

// RecorderConfig configures the SQLite recorder.
type RecorderConfig struct {
	Path string
	// BatchSize is how many snapshots the asynchronous listener buffers
	// before writing them in one transaction.
	BatchSize int
	// QueueSize bounds the snapshots waiting for the writer. Overflow is
	// dropped so a slow disk never stalls the tick.
	QueueSize int
}

// SQLiteRecorder implements HistoryStore using SQLite.
type SQLiteRecorder struct {
	db     *sql.DB
	logger zerolog.Logger
	pool   *performance.WorkerPool
	batch  *performance.BatchProcessor[*models.Snapshot]
}

// NewSQLiteRecorder opens (or creates) the archive at cfg.Path.
func NewSQLiteRecorder(cfg RecorderConfig, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if cfg.Path == "" {
		return nil, zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "history.path", cfg.Path, "must not be empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	r := &SQLiteRecorder{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
		pool:   performance.NewWorkerPool(1, cfg.QueueSize),
	}
	r.batch = performance.NewBatchProcessor(cfg.BatchSize, func(snaps []*models.Snapshot) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.write(ctx, snaps)
	})

	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	r.pool.Start()
	r.logger.Info().Str("path", cfg.Path).Msg("History recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS index_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		value REAL NOT NULL,
		change_percent REAL NOT NULL,
		sentiment TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		UNIQUE(session_id, symbol, sequence)
	);

	CREATE INDEX IF NOT EXISTS idx_history_symbol ON index_history(symbol, timestamp);
	CREATE INDEX IF NOT EXISTS idx_history_session ON index_history(session_id);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Record writes one snapshot synchronously.
func (r *SQLiteRecorder) Record(ctx context.Context, snap *models.Snapshot) error {
	return r.write(ctx, []*models.Snapshot{snap})
}

// OnSnapshot queues a snapshot for the background writer. Its signature
// matches market.Listener.
func (r *SQLiteRecorder) OnSnapshot(snap *models.Snapshot) {
	ok := r.pool.Submit(func() {
		if err := r.batch.Add(snap); err != nil {
			r.logger.Error().Err(err).Uint64("seq", snap.Sequence).Msg("Failed to write history batch")
		}
	})
	if !ok {
		r.logger.Warn().Uint64("seq", snap.Sequence).Msg("History queue full, snapshot dropped")
	}
}

func (r *SQLiteRecorder) write(ctx context.Context, snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO index_history (session_id, symbol, sequence, value, change_percent, sentiment, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		for _, p := range pointsOf(snap) {
			_, err := stmt.ExecContext(ctx, p.SessionID, p.Symbol, p.Sequence, p.Value, p.ChangePercent, p.Sentiment, p.Timestamp.UTC())
			if err != nil {
				return fmt.Errorf("failed to insert point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// History returns the latest limit points for symbol, oldest first.
func (r *SQLiteRecorder) History(ctx context.Context, symbol string, limit int) ([]Point, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, symbol, sequence, value, change_percent, sentiment, timestamp
		FROM (
			SELECT * FROM index_history
			WHERE symbol = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?
		)
		ORDER BY timestamp ASC, id ASC
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.SessionID, &p.Symbol, &p.Sequence, &p.Value, &p.ChangePercent, &p.Sentiment, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	if len(points) == 0 {
		return nil, zerrors.NewDataError("history", symbol, "no points recorded", zerrors.ErrDataNotFound)
	}
	return points, nil
}

// Sessions lists archived sessions, most recent first.
func (r *SQLiteRecorder) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM index_history
		GROUP BY session_id
		ORDER BY MAX(timestamp) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var first, last string
		if err := rows.Scan(&s.SessionID, &s.Points, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.FirstSeen = parseSQLiteTime(first)
		s.LastSeen = parseSQLiteTime(last)
		out = append(out, s)
	}
	return out, rows.Err()
}

// aggregates over DATETIME columns come back as text
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", "2006-01-02T15:04:05.999999999-07:00", "2006-01-02 15:04:05.999999999", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Flush writes any buffered snapshots.
func (r *SQLiteRecorder) Flush() error {
	var err error
	if !r.pool.SubmitWait(func() { err = r.batch.Flush() }) {
		// pool stopped: nothing can be adding concurrently
		err = r.batch.Flush()
	}
	return err
}

// Close drains queued snapshots, writes the final batch and closes the
// database.
func (r *SQLiteRecorder) Close() error {
	r.pool.Stop()
	if err := r.batch.Flush(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to flush history on close")
	}
	r.logger.Info().Msg("History recorder closed")
	return r.db.Close()
}
