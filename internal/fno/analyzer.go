package fno

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"zonix/internal/models"
	"zonix/internal/pricing"
	"zonix/internal/resilience"
	"zonix/pkg/utils"
)

// DefaultSpotQuantum is the spot resolution analytics are memoized on.
const DefaultSpotQuantum = 0.01

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	SpotQuantum float64
	Expiries    int
}

// DefaultAnalyzerConfig returns the default analyzer settings.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{SpotQuantum: DefaultSpotQuantum, Expiries: DefaultExpiries}
}

// memoEntry is what the cache holds per symbol: the analytics plus the key
// they were generated for.
type memoEntry[T any] struct {
	Spot   float64 `json:"spot"`
	Series string  `json:"series,omitempty"`
	Value  T       `json:"value"`
}

// Analyzer serves futures and options analytics per symbol. Each symbol keeps
// one entry per kind; it is regenerated only when the quantized spot (or the
// listed expiry series) changes, never on a timer.
type Analyzer struct {
	cfg    AnalyzerConfig
	cache  Cache
	logger zerolog.Logger
	now    func() time.Time

	mu  sync.Mutex
	rng pricing.Rand

	computes atomic.Int64
}

// NewAnalyzer creates an analyzer. A nil cache selects the in-memory backend.
func NewAnalyzer(cfg AnalyzerConfig, cache Cache, rng pricing.Rand, logger zerolog.Logger) *Analyzer {
	if cfg.SpotQuantum <= 0 {
		cfg.SpotQuantum = DefaultSpotQuantum
	}
	if cfg.Expiries <= 0 {
		cfg.Expiries = DefaultExpiries
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Analyzer{
		cfg:    cfg,
		cache:  cache,
		logger: logger.With().Str("component", "fno").Logger(),
		now:    time.Now,
		rng:    rng,
	}
}

// CacheCircuit reports the breaker in front of an external cache backend.
// The in-memory backend has none.
func (a *Analyzer) CacheCircuit() (resilience.CircuitBreakerStats, bool) {
	guarded, ok := a.cache.(*GuardedCache)
	if !ok {
		return resilience.CircuitBreakerStats{}, false
	}
	return guarded.Stats(), true
}

// Quantize snaps spot to the memoization grid.
func (a *Analyzer) Quantize(spot float64) float64 {
	return pricing.Round2(math.Round(spot/a.cfg.SpotQuantum) * a.cfg.SpotQuantum)
}

// Computes returns how many times analytics were generated rather than served
// from cache.
func (a *Analyzer) Computes() int64 {
	return a.computes.Load()
}

// Futures returns the futures term structure for symbol at spot.
func (a *Analyzer) Futures(ctx context.Context, symbol string, spot float64) (*models.FuturesChain, error) {
	if err := validSpot(spot); err != nil {
		return nil, err
	}
	q := a.Quantize(spot)
	labels := utils.ExpiryLabels(a.now(), a.cfg.Expiries)
	series := ""
	if len(labels) > 0 {
		series = labels[0]
	}

	return memoize(ctx, a, "fno:futures:"+symbol, q, series, func() (models.FuturesChain, error) {
		contracts, err := GenerateFutureContracts(q, labels, a.rng)
		if err != nil {
			return models.FuturesChain{}, err
		}
		return models.FuturesChain{Symbol: symbol, SpotPrice: q, Contracts: contracts}, nil
	})
}

// Options returns the options chain for symbol at spot.
func (a *Analyzer) Options(ctx context.Context, symbol string, spot float64) (*models.OptionChain, error) {
	if err := validSpot(spot); err != nil {
		return nil, err
	}
	q := a.Quantize(spot)

	return memoize(ctx, a, "fno:options:"+symbol, q, "", func() (models.OptionChain, error) {
		chain, err := GenerateOptionsChain(q, a.rng)
		if err != nil {
			return models.OptionChain{}, err
		}
		chain.Symbol = symbol
		return *chain, nil
	})
}

// memoize serves key from the cache when it was generated for the same spot
// and series, otherwise regenerates and stores it. Cache failures degrade to
// direct generation.
func memoize[T any](ctx context.Context, a *Analyzer, key string, spot float64, series string, generate func() (T, error)) (*T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	log := a.logger.With().Str("key", key).Float64("spot", spot).Logger()

	raw, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Cache read failed")
	}
	if ok {
		var entry memoEntry[T]
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Warn().Err(err).Msg("Discarding corrupt cache entry")
		} else if entry.Spot == spot && entry.Series == series {
			return &entry.Value, nil
		}
	}

	value, err := generate()
	if err != nil {
		return nil, err
	}
	a.computes.Add(1)
	log.Debug().Msg("Analytics regenerated")

	raw, err = json.Marshal(memoEntry[T]{Spot: spot, Series: series, Value: value})
	if err == nil {
		err = a.cache.Set(ctx, key, raw)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Cache write failed")
	}
	return &value, nil
}
