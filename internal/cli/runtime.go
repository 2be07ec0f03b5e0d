package cli

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"zonix/internal/config"
	"zonix/internal/fno"
	"zonix/internal/market"
	"zonix/internal/resilience"
	"zonix/internal/security"
	"zonix/internal/store"
	"zonix/internal/stream"
	"zonix/internal/tape"
)

// Runtime wires one simulation session: the engine, its tick hub, the
// ticker tape, F&O analytics and the optional history archive.
type Runtime struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Engine    *market.Engine
	Hub       *stream.Hub
	Publisher *stream.SnapshotPublisher
	Tape      *tape.Tape
	Analyzer  *fno.Analyzer
	History   *store.SQLiteRecorder

	closers []func() error
}

// RuntimeOptions toggles the optional parts of a runtime.
type RuntimeOptions struct {
	History bool
}

// NewRuntime builds every component from cfg. Each component draws from its
// own generator derived from the session seed so that adding a consumer never
// shifts another component's sequence.
func NewRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts RuntimeOptions) (*Runtime, error) {
	seed := cfg.Seed()
	logger.Debug().Int64("seed", seed).Msg("Building runtime")

	rt := &Runtime{Config: cfg, Logger: logger}

	engine, err := market.NewEngine(cfg.Market(), market.DefaultCatalog(), newRand(seed), logger)
	if err != nil {
		return nil, err
	}
	rt.Engine = engine
	rt.closers = append(rt.closers, func() error { engine.Close(); return nil })

	rt.Hub = stream.NewHubWithConfig(cfg.Hub(), logger)
	rt.Publisher = stream.NewSnapshotPublisher(rt.Hub)
	engine.OnUpdate(rt.Publisher.OnSnapshot)

	if cfg.Tape.Enabled {
		rt.Tape, err = tape.New(tape.DefaultInstruments(cfg.Tape.MaxChangePercent), newRand(seed + 1))
		if err != nil {
			rt.Close()
			return nil, err
		}
	}

	var cache fno.Cache
	if cfg.FNO.Cache == config.CacheRedis {
		redisCache, err := fno.NewRedisCache(ctx, cfg.RedisOptions())
		if err != nil {
			logger.Warn().Str("error", security.MaskSensitive(err.Error())).Str("addr", cfg.FNO.Redis.Addr).Msg("Redis unavailable, using in-memory analytics cache")
		} else {
			cache = fno.NewGuardedCache(redisCache, resilience.DefaultCircuitBreakerConfig(), logger)
			rt.closers = append(rt.closers, redisCache.Close)
		}
	}
	rt.Analyzer = fno.NewAnalyzer(cfg.Analyzer(), cache, newRand(seed + 2), logger)

	if opts.History && cfg.History.Enabled {
		rt.History, err = store.NewSQLiteRecorder(store.RecorderConfig{
			Path:      cfg.History.Path,
			BatchSize: cfg.History.BatchSize,
			QueueSize: cfg.History.QueueSize,
		}, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		engine.OnUpdate(rt.History.OnSnapshot)
		rt.closers = append(rt.closers, rt.History.Close)
	}

	return rt, nil
}

// HistoryStore returns the archive as an interface, nil when disabled.
func (rt *Runtime) HistoryStore() store.HistoryStore {
	if rt.History == nil {
		return nil
	}
	return rt.History
}

// Close releases components in reverse order of creation.
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
