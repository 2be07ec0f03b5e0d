// Package tape runs the scrolling ticker simulation. It is independent of the
// district engine: each instrument random-walks inside its own range with its
// own volatility.
package tape

import (
	"sync"
	"time"

	zerrors "zonix/internal/errors"
	"zonix/internal/market"
	"zonix/internal/models"
	"zonix/internal/pricing"
)

// DefaultMaxChangePercent is the per-update volatility of tape instruments.
const DefaultMaxChangePercent = 0.5

// Instrument describes one tape entry.
type Instrument struct {
	Symbol           string                `json:"symbol"`
	Name             string                `json:"name"`
	Kind             models.InstrumentKind `json:"kind"`
	Bounds           pricing.Bounds        `json:"bounds"`
	MaxChangePercent float64               `json:"max_change_percent"`
}

// DefaultInstruments returns the tape shown on the dashboard. maxChangePercent
// applies to state tokens and the Bharat index; mutual funds move at a fifth
// of it.
func DefaultInstruments(maxChangePercent float64) []Instrument {
	if maxChangePercent <= 0 {
		maxChangePercent = DefaultMaxChangePercent
	}
	fund := maxChangePercent / 5

	return []Instrument{
		{Symbol: "ZNX-BHARAT", Name: "Bharat Index", Kind: models.KindNationwide, Bounds: pricing.Bounds{Min: 11_000_000, Max: 14_000_000}, MaxChangePercent: maxChangePercent},
		{Symbol: "ZNX-MH", Name: "Maharashtra Token", Kind: models.KindState, Bounds: pricing.Bounds{Min: 2_000, Max: 3_500}, MaxChangePercent: maxChangePercent},
		{Symbol: "ZNX-KA", Name: "Karnataka Token", Kind: models.KindState, Bounds: pricing.Bounds{Min: 1_500, Max: 2_800}, MaxChangePercent: maxChangePercent},
		{Symbol: "ZNX-TN", Name: "Tamil Nadu Token", Kind: models.KindState, Bounds: pricing.Bounds{Min: 1_400, Max: 2_600}, MaxChangePercent: maxChangePercent},
		{Symbol: "ZNX-GJ", Name: "Gujarat Token", Kind: models.KindState, Bounds: pricing.Bounds{Min: 1_600, Max: 3_000}, MaxChangePercent: maxChangePercent},
		{Symbol: "ZNX-DL", Name: "Delhi Token", Kind: models.KindState, Bounds: pricing.Bounds{Min: 2_200, Max: 3_800}, MaxChangePercent: maxChangePercent},
		{Symbol: "ZNX-UP", Name: "Uttar Pradesh Token", Kind: models.KindState, Bounds: pricing.Bounds{Min: 900, Max: 1_800}, MaxChangePercent: maxChangePercent},
		{Symbol: "ZMF-GROWTH", Name: "Zonix Growth Fund", Kind: models.KindMutualFund, Bounds: pricing.Bounds{Min: 80, Max: 160}, MaxChangePercent: fund},
		{Symbol: "ZMF-INFRA", Name: "Bharat Infra Fund", Kind: models.KindMutualFund, Bounds: pricing.Bounds{Min: 40, Max: 95}, MaxChangePercent: fund},
		{Symbol: "ZMF-RURAL", Name: "Rural Prosperity Fund", Kind: models.KindMutualFund, Bounds: pricing.Bounds{Min: 25, Max: 70}, MaxChangePercent: fund},
	}
}

// Tape holds the live tape state. Update is the only writer.
type Tape struct {
	instruments []Instrument
	rng         pricing.Rand
	now         func() time.Time

	mu    sync.RWMutex
	ticks []models.Tick
	seq   uint64
}

// New validates the instruments and seeds each one at a random price inside
// its range. That price is the session open.
func New(instruments []Instrument, rng pricing.Rand) (*Tape, error) {
	seen := make(map[string]bool, len(instruments))
	for _, in := range instruments {
		if in.Symbol == "" {
			return nil, zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "symbol", in.Symbol, "must not be empty")
		}
		if seen[in.Symbol] {
			return nil, zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "symbol", in.Symbol, "duplicate tape instrument")
		}
		seen[in.Symbol] = true
		if err := in.Bounds.Validate(); err != nil {
			return nil, zerrors.Wrapf(err, "tape instrument %s", in.Symbol)
		}
		if in.MaxChangePercent <= 0 {
			return nil, zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "max_change_percent", in.MaxChangePercent, "must be positive")
		}
	}

	t := &Tape{
		instruments: instruments,
		rng:         rng,
		now:         time.Now,
		ticks:       make([]models.Tick, len(instruments)),
	}
	ts := t.now()
	for i, in := range instruments {
		p := pricing.RandomPrice(in.Bounds, rng)
		t.ticks[i] = models.Tick{
			Symbol:    in.Symbol,
			Name:      in.Name,
			Kind:      in.Kind,
			LTP:       p,
			Open:      p,
			High:      p,
			Low:       p,
			Sentiment: models.SentimentNeutral,
			Timestamp: ts,
		}
	}
	return t, nil
}

// Update moves every instrument once and returns the new tape.
func (t *Tape) Update() []models.Tick {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	ts := t.now()
	for i, in := range t.instruments {
		tick := &t.ticks[i]
		tick.LTP = pricing.BoundedPercentPriceUpdate(tick.LTP, in.Bounds, in.MaxChangePercent, t.rng)
		if tick.LTP > tick.High {
			tick.High = tick.LTP
		}
		if tick.LTP < tick.Low {
			tick.Low = tick.LTP
		}
		tick.Change = pricing.Round2(tick.LTP - tick.Open)
		tick.ChangePercent = pricing.PercentChange(tick.Open, tick.LTP)
		tick.Sentiment = market.SignSentiment(tick.ChangePercent)
		tick.Volume += int64(pricing.Uniform(t.rng, 100, 10_000))
		tick.Sequence = t.seq
		tick.Timestamp = ts
	}
	return t.copyTicks()
}

// Ticks returns the current tape.
func (t *Tape) Ticks() []models.Tick {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copyTicks()
}

// Tick returns one instrument's latest tick.
func (t *Tape) Tick(symbol string) (models.Tick, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, tick := range t.ticks {
		if tick.Symbol == symbol {
			return tick, true
		}
	}
	return models.Tick{}, false
}

// Instruments returns the configured instruments.
func (t *Tape) Instruments() []Instrument {
	out := make([]Instrument, len(t.instruments))
	copy(out, t.instruments)
	return out
}

func (t *Tape) copyTicks() []models.Tick {
	out := make([]models.Tick, len(t.ticks))
	copy(out, t.ticks)
	return out
}
