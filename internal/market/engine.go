package market

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	zerrors "zonix/internal/errors"
	"zonix/internal/logging"
	"zonix/internal/models"
	"zonix/internal/pricing"
)

// Config holds the engine parameters.
type Config struct {
	Bounds             pricing.Bounds
	StateScale         float64
	NationwideBaseline float64
	NationwideScale    float64
}

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Bounds:             pricing.DefaultBounds(),
		StateScale:         DefaultStateScale,
		NationwideBaseline: DefaultNationwideBaseline,
		NationwideScale:    1,
	}
}

// Validate rejects configurations the clamping and scaling logic cannot use.
func (c Config) Validate() error {
	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if c.StateScale <= 0 {
		return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "state_scale", c.StateScale, "must be positive")
	}
	if c.NationwideScale <= 0 {
		return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "nationwide_scale", c.NationwideScale, "must be positive")
	}
	if c.NationwideBaseline < 0 {
		return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "nationwide_baseline", c.NationwideBaseline, "must not be negative")
	}
	return nil
}

// Listener receives every snapshot the engine publishes. Snapshots are shared
// and must not be modified.
type Listener func(snap *models.Snapshot)

// Engine owns one simulation session. Step is the single writer; readers call
// Snapshot and always observe a complete districts -> states -> nationwide pass.
type Engine struct {
	cfg       Config
	catalog   Catalog
	sessionID string
	logger    zerolog.Logger
	now       func() time.Time

	mu        sync.Mutex
	store     *DistrictStore
	baselines map[string]float64
	states    []models.StateIndex
	seq       uint64
	closed    bool

	snap atomic.Pointer[models.Snapshot]

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewEngine validates the configuration, seeds district prices, builds the
// state list and captures the per-state baselines. Baselines are never
// refreshed for the lifetime of the engine.
func NewEngine(cfg Config, catalog Catalog, rng pricing.Rand, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, zerrors.Wrap(err, "engine config")
	}
	if err := catalog.Validate(); err != nil {
		return nil, zerrors.Wrap(err, "engine catalog")
	}

	store, err := NewDistrictStore(catalog.Districts, cfg.Bounds, rng)
	if err != nil {
		return nil, err
	}

	states := NewStateIndices(catalog, store.prices, cfg.Bounds, cfg.StateScale, rng)
	baselines := make(map[string]float64, len(states))
	for _, st := range states {
		baselines[st.Code] = st.Value
	}

	e := &Engine{
		cfg:       cfg,
		catalog:   catalog,
		sessionID: uuid.NewString(),
		now:       time.Now,
		store:     store,
		baselines: baselines,
		states:    states,
	}
	e.logger = logging.WithSession(logger.With().Str("component", "engine").Logger(), e.sessionID)
	e.snap.Store(e.buildSnapshot())

	e.logger.Info().
		Int("states", len(states)).
		Int("districts", store.Len()).
		Float64("bharat", e.Snapshot().Nationwide.Value).
		Msg("Engine initialized")

	return e, nil
}

// Step runs one tick: every district moves, then every state and the Bharat
// index are recomputed, then listeners are notified in registration order.
func (e *Engine) Step() (*models.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, zerrors.ErrEngineClosed
	}

	start := time.Now()
	e.store.Tick()
	e.states = ComputeStateIndices(e.states, e.catalog.Districts, e.store.prices, e.baselines, e.cfg.StateScale)
	e.seq++

	snap := e.buildSnapshot()
	e.snap.Store(snap)

	logging.LogStep(e.logger, snap.Sequence, snap.Nationwide.Value, snap.Nationwide.Change, time.Since(start))

	e.listenersMu.RLock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap, nil
}

// buildSnapshot must be called with mu held (or before the engine is shared).
func (e *Engine) buildSnapshot() *models.Snapshot {
	states := make([]models.StateIndex, len(e.states))
	copy(states, e.states)
	return &models.Snapshot{
		SessionID:  e.sessionID,
		Sequence:   e.seq,
		Timestamp:  e.now(),
		Districts:  e.store.List(),
		States:     states,
		Nationwide: ComputeNationwideIndex(states, e.cfg.NationwideBaseline, e.cfg.NationwideScale),
	}
}

// Snapshot returns the latest published snapshot.
func (e *Engine) Snapshot() *models.Snapshot {
	return e.snap.Load()
}

// OnUpdate registers a listener called after every Step.
func (e *Engine) OnUpdate(l Listener) {
	e.listenersMu.Lock()
	e.listeners = append(e.listeners, l)
	e.listenersMu.Unlock()
}

// Baselines returns a copy of the per-state baselines captured at startup.
func (e *Engine) Baselines() map[string]float64 {
	out := make(map[string]float64, len(e.baselines))
	for k, v := range e.baselines {
		out[k] = v
	}
	return out
}

// SessionID identifies this engine instance.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Catalog returns the simulated states and districts.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Close stops the engine from accepting further steps and drops listeners.
// The last snapshot stays readable.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true

	e.listenersMu.Lock()
	e.listeners = nil
	e.listenersMu.Unlock()

	e.logger.Info().Uint64("ticks", e.seq).Msg("Engine closed")
}
