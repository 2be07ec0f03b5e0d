package stream

import (
	"sync"

	"zonix/internal/models"
	"zonix/internal/pricing"
)

type session struct {
	open, high, low float64
}

// SnapshotPublisher turns engine snapshots into ticks: one for the Bharat
// index and one per state. It keeps each symbol's session open, high and low.
type SnapshotPublisher struct {
	hub *Hub

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSnapshotPublisher creates a publisher feeding hub.
func NewSnapshotPublisher(hub *Hub) *SnapshotPublisher {
	return &SnapshotPublisher{hub: hub, sessions: make(map[string]*session)}
}

// OnSnapshot converts and publishes a snapshot. Its signature matches
// market.Listener so it can be registered with Engine.OnUpdate.
func (p *SnapshotPublisher) OnSnapshot(snap *models.Snapshot) {
	p.hub.PublishBatch(p.Ticks(snap))
}

// Ticks converts a snapshot without publishing it.
func (p *SnapshotPublisher) Ticks(snap *models.Snapshot) []models.Tick {
	p.mu.Lock()
	defer p.mu.Unlock()

	ticks := make([]models.Tick, 0, len(snap.States)+1)
	ticks = append(ticks, p.tick(snap, models.BharatSymbol, "Bharat Index", models.KindNationwide,
		snap.Nationwide.Value, snap.Nationwide.Change, snap.Nationwide.Sentiment))
	for _, st := range snap.States {
		t := p.tick(snap, st.Code, st.Name, models.KindState, st.Value, st.Change, st.Sentiment)
		t.Volume = st.Profile.Volume
		ticks = append(ticks, t)
	}
	return ticks
}

func (p *SnapshotPublisher) tick(snap *models.Snapshot, symbol, name string, kind models.InstrumentKind, value, changePct float64, sentiment models.Sentiment) models.Tick {
	s, ok := p.sessions[symbol]
	if !ok {
		s = &session{open: value, high: value, low: value}
		p.sessions[symbol] = s
	}
	if value > s.high {
		s.high = value
	}
	if value < s.low {
		s.low = value
	}

	return models.Tick{
		Symbol:        symbol,
		Name:          name,
		Kind:          kind,
		LTP:           value,
		Open:          s.open,
		High:          s.high,
		Low:           s.low,
		Change:        pricing.Round2(value - s.open),
		ChangePercent: changePct,
		Sentiment:     sentiment,
		Sequence:      snap.Sequence,
		Timestamp:     snap.Timestamp,
	}
}
