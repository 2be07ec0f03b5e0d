// Package fno derives synthetic futures and options analytics from a spot
// price. Every generator is a pure function of the spot and the random source.
package fno

import (
	"math"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
	"zonix/internal/pricing"
)

// DefaultExpiries is the number of monthly futures contracts listed.
const DefaultExpiries = 4

// MinSpot is the smallest spot analytics are generated for. Below it the
// lowest strikes of the chain would not be positive.
const MinSpot = 1.0

// FuturesSentiment labels a contract by its day change. Moves within ±0.3%
// are neutral.
func FuturesSentiment(changePercent float64) models.Sentiment {
	switch {
	case changePercent > 0.3:
		return models.SentimentBullish
	case changePercent < -0.3:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

func validSpot(spot float64) error {
	if math.IsNaN(spot) || math.IsInf(spot, 0) || spot < MinSpot {
		return zerrors.NewValidationErrorFor(zerrors.ErrInvalidSpot, "spot", spot, "must be a finite price of at least 1")
	}
	return nil
}

// GenerateFutureContracts builds one contract per expiry label, near month
// first. Farther expiries carry a larger premium over spot.
func GenerateFutureContracts(basePrice float64, expiries []string, rng pricing.Rand) ([]models.FutureContract, error) {
	if err := validSpot(basePrice); err != nil {
		return nil, err
	}

	contracts := make([]models.FutureContract, len(expiries))
	for i, expiry := range expiries {
		timeDecay := float64(i) * 0.005
		price := pricing.Round2(basePrice * (1 + timeDecay + pricing.Uniform(rng, -0.01, 0.01)))
		change := pricing.Round2(pricing.Uniform(rng, -4, 4))
		basis := pricing.Round2(price - basePrice)

		contracts[i] = models.FutureContract{
			Expiry:        expiry,
			LTP:           price,
			ChangePercent: change,
			Volume:        int64(pricing.Uniform(rng, 10_000, 500_000)),
			OI:            int64(pricing.Uniform(rng, 100_000, 5_000_000)),
			OIChange:      pricing.Round2(pricing.Uniform(rng, -10, 10)),
			Basis:         basis,
			BasisPercent:  pricing.Round2(basis / basePrice * 100),
			Sentiment:     FuturesSentiment(change),
			NearMonth:     i == 0,
		}
	}
	return contracts, nil
}
