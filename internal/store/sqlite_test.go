package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
)

func newTestRecorder(t *testing.T, batch int) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(RecorderConfig{
		Path:      filepath.Join(t.TempDir(), "history", "zonix.db"),
		BatchSize: batch,
		QueueSize: 64,
	}, zerolog.Nop())
	require.NoError(t, err)
	return r
}

func testSnapshot(session string, seq uint64, ts time.Time, bharat float64) *models.Snapshot {
	return &models.Snapshot{
		SessionID: session,
		Sequence:  seq,
		Timestamp: ts,
		States: []models.StateIndex{
			{Code: "MH", Value: bharat / 10, Change: 0.5, Sentiment: models.SentimentBullish},
			{Code: "KA", Value: bharat / 20, Change: -0.25, Sentiment: models.SentimentBearish},
		},
		Nationwide: models.NationwideIndex{Value: bharat, Change: 0.1, Sentiment: models.SentimentBullish},
	}
}

func TestRecorder_RecordAndHistory(t *testing.T) {
	r := newTestRecorder(t, 1)
	defer r.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(ctx, testSnapshot("s1", uint64(i+1), base.Add(time.Duration(i)*time.Second), 1000+float64(i))))
	}

	points, err := r.History(ctx, models.BharatSymbol, 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, uint64(3), points[0].Sequence, "latest three, oldest first")
	assert.Equal(t, uint64(5), points[2].Sequence)
	assert.InDelta(t, 1004.0, points[2].Value, 1e-9)
	assert.True(t, points[2].Timestamp.Equal(base.Add(4*time.Second)))

	mh, err := r.History(ctx, "MH", 0)
	require.NoError(t, err)
	assert.Len(t, mh, 5)
	assert.Equal(t, string(models.SentimentBullish), mh[0].Sentiment)

	_, err = r.History(ctx, "XX", 10)
	assert.ErrorIs(t, err, zerrors.ErrDataNotFound)
}

func TestRecorder_RecordIsIdempotentPerSequence(t *testing.T) {
	r := newTestRecorder(t, 1)
	defer r.Close()
	ctx := context.Background()

	ts := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	require.NoError(t, r.Record(ctx, testSnapshot("s1", 1, ts, 1000)))
	require.NoError(t, r.Record(ctx, testSnapshot("s1", 1, ts, 1001)))

	points, err := r.History(ctx, models.BharatSymbol, 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 1001.0, points[0].Value, 1e-9)
}

func TestRecorder_AsyncListenerFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zonix.db")
	r, err := NewSQLiteRecorder(RecorderConfig{Path: path, BatchSize: 4, QueueSize: 64}, zerolog.Nop())
	require.NoError(t, err)

	ts := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	for i := 1; i <= 6; i++ {
		r.OnSnapshot(testSnapshot("async", uint64(i), ts.Add(time.Duration(i)*time.Second), 1000))
	}
	require.NoError(t, r.Close())

	reopened, err := NewSQLiteRecorder(RecorderConfig{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	points, err := reopened.History(context.Background(), "KA", 100)
	require.NoError(t, err)
	assert.Len(t, points, 6)
}

func TestRecorder_FlushWritesPartialBatch(t *testing.T) {
	r := newTestRecorder(t, 100)
	defer r.Close()

	r.OnSnapshot(testSnapshot("partial", 1, time.Now(), 1000))
	require.NoError(t, r.Flush())

	points, err := r.History(context.Background(), models.BharatSymbol, 10)
	require.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestRecorder_Sessions(t *testing.T) {
	r := newTestRecorder(t, 1)
	defer r.Close()
	ctx := context.Background()

	t0 := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	require.NoError(t, r.Record(ctx, testSnapshot("old", 1, t0, 1000)))
	require.NoError(t, r.Record(ctx, testSnapshot("new", 1, t0.Add(time.Hour), 1000)))
	require.NoError(t, r.Record(ctx, testSnapshot("new", 2, t0.Add(time.Hour+time.Second), 1000)))

	sessions, err := r.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].SessionID)
	assert.Equal(t, 6, sessions[0].Points, "bharat plus two states per snapshot")
	assert.Equal(t, 3, sessions[1].Points)
}

func TestRecorder_RequiresPath(t *testing.T) {
	_, err := NewSQLiteRecorder(RecorderConfig{}, zerolog.Nop())
	assert.ErrorIs(t, err, zerrors.ErrConfigInvalid)
}

// Property: recording a snapshot then reading it back yields the same index
// values for Bharat and every state.
func TestProperty_HistoryRoundTrip(t *testing.T) {
	r := newTestRecorder(t, 1)
	defer r.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	var run int
	properties.Property("recorded values read back unchanged", prop.ForAll(
		func(value float64, seq uint64) bool {
			run++
			ctx := context.Background()
			session := fmt.Sprintf("prop-%d", run)
			snap := testSnapshot(session, seq, time.Now().UTC(), math.Round(value*100)/100)
			if err := r.Record(ctx, snap); err != nil {
				return false
			}
			for _, p := range pointsOf(snap) {
				got, err := r.History(ctx, p.Symbol, 1)
				if err != nil || len(got) != 1 {
					return false
				}
				if got[0].SessionID != session || got[0].Sequence != seq || math.Abs(got[0].Value-p.Value) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 50_000_000),
		gen.UInt64Range(1, 1<<40),
	))

	properties.TestingRun(t)
}
