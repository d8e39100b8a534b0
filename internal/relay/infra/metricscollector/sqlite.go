package metricscollector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/izzddalfk/tgrelay/internal/relay/core"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteCollector struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteCollector creates a new metrics collector with SQLite
func NewSQLiteCollector(dbPath string, logger *slog.Logger) (*SQLiteCollector, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}

	collector := &SQLiteCollector{
		db:     db,
		logger: logger,
	}

	if err := collector.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metrics schema: %w", err)
	}

	logger.InfoContext(context.Background(), "Metrics collector initialized",
		"db_path", dbPath,
	)

	return collector, nil
}

// Close closes the database connection
func (mc *SQLiteCollector) Close() error {
	return mc.db.Close()
}

// RecordRelay records metrics for one relay request
func (mc *SQLiteCollector) RecordRelay(ctx context.Context, metrics core.RelayMetrics) error {
	mc.logger.DebugContext(ctx, "Recording relay metrics",
		"request_id", metrics.RequestID,
		"outcome", metrics.Outcome,
		"duration_ms", metrics.Duration.Milliseconds(),
	)

	query := `
		INSERT INTO relay_metrics (
			request_id, outcome, status_code, upstream_status,
			duration_ms, timestamp
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := mc.db.ExecContext(ctx, query,
		metrics.RequestID,
		string(metrics.Outcome),
		metrics.StatusCode,
		metrics.UpstreamStatus,
		metrics.Duration.Milliseconds(),
		metrics.Timestamp.UTC(),
	)
	if err != nil {
		mc.logger.ErrorContext(ctx, "Failed to record relay metrics",
			"request_id", metrics.RequestID,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to record relay metrics: %w", err)
	}

	return nil
}

// GetOutcomeStats returns request counts per outcome since the given time
func (mc *SQLiteCollector) GetOutcomeStats(ctx context.Context, since time.Time) (*core.OutcomeStats, error) {
	query := `
		SELECT outcome, COUNT(*), COALESCE(SUM(duration_ms), 0)
		FROM relay_metrics
		WHERE timestamp >= ?
		GROUP BY outcome
	`

	rows, err := mc.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query relay metrics: %w", err)
	}
	defer rows.Close()

	stats := &core.OutcomeStats{
		Since:     since,
		ByOutcome: make(map[core.OutcomeKind]int64),
	}

	var totalDurationMs int64
	for rows.Next() {
		var (
			outcome    string
			count      int64
			durationMs int64
		)
		if err := rows.Scan(&outcome, &count, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan relay metrics: %w", err)
		}
		stats.ByOutcome[core.OutcomeKind(outcome)] = count
		stats.Total += count
		totalDurationMs += durationMs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate relay metrics: %w", err)
	}

	if stats.Total > 0 {
		stats.AvgDurationMs = float64(totalDurationMs) / float64(stats.Total)
	}

	return stats, nil
}

// initSchema initializes the database schema
func (mc *SQLiteCollector) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS relay_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		upstream_status INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL,
		timestamp DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_relay_metrics_timestamp ON relay_metrics(timestamp);
	CREATE INDEX IF NOT EXISTS idx_relay_metrics_outcome ON relay_metrics(outcome);
	`

	_, err := mc.db.Exec(schema)
	return err
}
