// Package store provides the optional index history archive.
package store

import (
	"context"
	"time"

	"zonix/internal/models"
)

// HistoryStore archives index values for charting. The simulation never
// reads it back; each session starts fresh.
type HistoryStore interface {
	Record(ctx context.Context, snap *models.Snapshot) error
	History(ctx context.Context, symbol string, limit int) ([]Point, error)
	Sessions(ctx context.Context) ([]SessionSummary, error)
	Close() error
}

// Point is one archived index value.
type Point struct {
	SessionID     string    `json:"session_id"`
	Symbol        string    `json:"symbol"`
	Sequence      uint64    `json:"sequence"`
	Value         float64   `json:"value"`
	ChangePercent float64   `json:"change_percent"`
	Sentiment     string    `json:"sentiment"`
	Timestamp     time.Time `json:"timestamp"`
}

// SessionSummary describes one archived engine session.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Points    int       `json:"points"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 500

// pointsOf flattens a snapshot into the Bharat point followed by one point
// per state.
func pointsOf(snap *models.Snapshot) []Point {
	points := make([]Point, 0, len(snap.States)+1)
	points = append(points, Point{
		SessionID:     snap.SessionID,
		Symbol:        models.BharatSymbol,
		Sequence:      snap.Sequence,
		Value:         snap.Nationwide.Value,
		ChangePercent: snap.Nationwide.Change,
		Sentiment:     string(snap.Nationwide.Sentiment),
		Timestamp:     snap.Timestamp,
	})
	for _, st := range snap.States {
		points = append(points, Point{
			SessionID:     snap.SessionID,
			Symbol:        st.Code,
			Sequence:      snap.Sequence,
			Value:         st.Value,
			ChangePercent: st.Change,
			Sentiment:     string(st.Sentiment),
			Timestamp:     snap.Timestamp,
		})
	}
	return points
}
