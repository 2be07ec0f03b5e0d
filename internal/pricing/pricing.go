// Package pricing provides the synthetic price mutators and the aggregation
// helpers every index computation is built on.
package pricing

import (
	"math"

	zerrors "zonix/internal/errors"
)

// Rand is the random source used by all mutators. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Bounds is an inclusive price range.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultBounds returns the district price range used by the dashboards.
func DefaultBounds() Bounds {
	return Bounds{Min: 40, Max: 550}
}

// Validate checks that the range is usable for clamping. Spot prices derived
// from these bounds must stay strictly positive.
func (b Bounds) Validate() error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
		return zerrors.NewValidationErrorFor(zerrors.ErrInvalidBounds, "bounds", b, "must be finite")
	}
	if b.Min <= 0 {
		return zerrors.NewValidationErrorFor(zerrors.ErrInvalidBounds, "min_price", b.Min, "must be positive")
	}
	if b.Min >= b.Max {
		return zerrors.NewValidationErrorFor(zerrors.ErrInvalidBounds, "max_price", b.Max, "must be greater than min_price")
	}
	return nil
}

// Clamp limits v to the range.
func (b Bounds) Clamp(v float64) float64 {
	return math.Min(b.Max, math.Max(b.Min, v))
}

// Contains reports whether v lies inside the range.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Uniform draws a value uniformly from [lo, hi).
func Uniform(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// NextPrice advances a price by a small random step. Seven moves in ten are
// within ±1, the rest within ±2. The result is rounded to paise, then clamped.
func NextPrice(current float64, b Bounds, rng Rand) float64 {
	var delta float64
	if rng.Float64() < 0.7 {
		delta = Uniform(rng, -1, 1)
	} else {
		delta = Uniform(rng, -2, 2)
	}
	return b.Clamp(Round2(current + delta))
}

// BoundedPercentPriceUpdate moves a price by a uniform percentage in
// [-maxChangePercent, +maxChangePercent], then rounds and clamps.
func BoundedPercentPriceUpdate(current float64, b Bounds, maxChangePercent float64, rng Rand) float64 {
	pct := Uniform(rng, -maxChangePercent, maxChangePercent)
	return b.Clamp(Round2(current * (1 + pct/100)))
}

// RandomPrice draws an initial price uniformly inside the range.
func RandomPrice(b Bounds, rng Rand) float64 {
	return b.Clamp(Round2(Uniform(rng, b.Min, b.Max)))
}
