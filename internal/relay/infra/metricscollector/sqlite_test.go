package metricscollector_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/izzddalfk/tgrelay/internal/relay/core"
	"github.com/izzddalfk/tgrelay/internal/relay/infra/metricscollector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupSQLiteCollector(t *testing.T) (*metricscollector.SQLiteCollector, func()) {
	dbPath := filepath.Join(t.TempDir(), "test_metrics.db")

	collector, err := metricscollector.NewSQLiteCollector(dbPath, getTestLogger())
	require.NoError(t, err)

	return collector, func() { collector.Close() }
}

func createTestRelayMetrics(requestID string, outcome core.OutcomeKind, status int, duration time.Duration) core.RelayMetrics {
	return core.RelayMetrics{
		RequestID:  requestID,
		Outcome:    outcome,
		StatusCode: status,
		Duration:   duration,
		Timestamp:  time.Now(),
	}
}

func TestSQLiteCollector_RecordRelay_Success(t *testing.T) {
	collector, cleanup := setupSQLiteCollector(t)
	defer cleanup()

	ctx := context.Background()
	metrics := createTestRelayMetrics("req-1", core.OutcomeDelivered, http.StatusOK, 150*time.Millisecond)
	metrics.UpstreamStatus = http.StatusOK

	err := collector.RecordRelay(ctx, metrics)
	require.NoError(t, err)

	stats, err := collector.GetOutcomeStats(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.ByOutcome[core.OutcomeDelivered])
	assert.Equal(t, 150.0, stats.AvgDurationMs)
}

func TestSQLiteCollector_GetOutcomeStats_MultipleOutcomes(t *testing.T) {
	collector, cleanup := setupSQLiteCollector(t)
	defer cleanup()

	ctx := context.Background()
	records := []core.RelayMetrics{
		createTestRelayMetrics("req-1", core.OutcomeDelivered, http.StatusOK, 100*time.Millisecond),
		createTestRelayMetrics("req-2", core.OutcomeDelivered, http.StatusOK, 200*time.Millisecond),
		createTestRelayMetrics("req-3", core.OutcomeForbidden, http.StatusForbidden, 0),
		createTestRelayMetrics("req-4", core.OutcomeUpstreamFailure, http.StatusInternalServerError, 300*time.Millisecond),
	}

	for _, m := range records {
		require.NoError(t, collector.RecordRelay(ctx, m))
	}

	stats, err := collector.GetOutcomeStats(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.ByOutcome[core.OutcomeDelivered])
	assert.Equal(t, int64(1), stats.ByOutcome[core.OutcomeForbidden])
	assert.Equal(t, int64(1), stats.ByOutcome[core.OutcomeUpstreamFailure])
	assert.Equal(t, 150.0, stats.AvgDurationMs)
}

func TestSQLiteCollector_GetOutcomeStats_ExcludesOlderRecords(t *testing.T) {
	collector, cleanup := setupSQLiteCollector(t)
	defer cleanup()

	ctx := context.Background()
	old := createTestRelayMetrics("req-old", core.OutcomeDelivered, http.StatusOK, time.Millisecond)
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	require.NoError(t, collector.RecordRelay(ctx, old))
	require.NoError(t, collector.RecordRelay(ctx, createTestRelayMetrics("req-new", core.OutcomeBadRequest, http.StatusBadRequest, 0)))

	stats, err := collector.GetOutcomeStats(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Total)
	assert.Zero(t, stats.ByOutcome[core.OutcomeDelivered])
	assert.Equal(t, int64(1), stats.ByOutcome[core.OutcomeBadRequest])
}

func TestSQLiteCollector_GetOutcomeStats_Empty(t *testing.T) {
	collector, cleanup := setupSQLiteCollector(t)
	defer cleanup()

	stats, err := collector.GetOutcomeStats(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.ByOutcome)
	assert.Zero(t, stats.AvgDurationMs)
}

func TestSQLiteCollector_RecordRelay_ClosedDatabase(t *testing.T) {
	collector, _ := setupSQLiteCollector(t)
	require.NoError(t, collector.Close())

	err := collector.RecordRelay(context.Background(), createTestRelayMetrics("req-1", core.OutcomeDelivered, http.StatusOK, 0))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record relay metrics")
}
