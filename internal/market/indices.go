package market

import (
	"zonix/internal/models"
	"zonix/internal/pricing"
)

// DefaultStateScale converts a mean district price into index points.
const DefaultStateScale = 10_000

// DefaultNationwideBaseline is the Bharat index reference level.
const DefaultNationwideBaseline = 12_450_000

// StateSentiment labels a state's cumulative change. The bearish trigger is
// deliberately more sensitive than the bullish one.
func StateSentiment(change float64) models.Sentiment {
	switch {
	case change > 3:
		return models.SentimentBullish
	case change < -1:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// StateTrend is the trend arrow. Its thresholds are independent of
// StateSentiment.
func StateTrend(change float64) models.Trend {
	switch {
	case change > 2:
		return models.TrendUp
	case change < -2:
		return models.TrendDown
	default:
		return models.TrendNeutral
	}
}

// SignSentiment labels a change by its sign only.
func SignSentiment(change float64) models.Sentiment {
	switch {
	case change > 0:
		return models.SentimentBullish
	case change < 0:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// memberPrices collects the live prices of the districts belonging to code.
func memberPrices(code string, districts []DistrictKey, prices map[DistrictKey]float64) []float64 {
	var out []float64
	for _, d := range districts {
		if d.StateCode != code {
			continue
		}
		if p, ok := prices[d]; ok {
			out = append(out, p)
		}
	}
	return out
}

// ComputeStateIndices recomputes value, change, sentiment and trend for each
// state from the live district prices. A state with no resolvable member
// price keeps its previous value. The input slice is left untouched.
func ComputeStateIndices(states []models.StateIndex, districts []DistrictKey, prices map[DistrictKey]float64, baselines map[string]float64, scale float64) []models.StateIndex {
	out := make([]models.StateIndex, len(states))
	for i, st := range states {
		members := memberPrices(st.Code, districts, prices)
		if len(members) > 0 {
			st.Value = pricing.Round2(pricing.Mean(members) * scale)
		}
		st.Change = pricing.PercentChange(baselines[st.Code], st.Value)
		st.Sentiment = StateSentiment(st.Change)
		st.AITrend = StateTrend(st.Change)
		out[i] = st
	}
	return out
}

// ComputeNationwideIndex averages the state values into the Bharat index.
func ComputeNationwideIndex(states []models.StateIndex, baseline, scale float64) models.NationwideIndex {
	values := make([]float64, len(states))
	for i, st := range states {
		values[i] = st.Value
	}
	value := pricing.Round2(pricing.Mean(values) * scale)
	change := pricing.PercentChange(baseline, value)
	return models.NationwideIndex{
		Value:     value,
		Change:    change,
		Baseline:  baseline,
		Sentiment: SignSentiment(change),
	}
}

// NewStateIndices builds the session's state list. Values start at the scaled
// mean of the initial district prices; a state without districts starts at a
// random level inside the scaled bounds. The descriptive profile is drawn once.
func NewStateIndices(catalog Catalog, prices map[DistrictKey]float64, b pricing.Bounds, scale float64, rng pricing.Rand) []models.StateIndex {
	states := make([]models.StateIndex, 0, len(catalog.States))
	for _, s := range catalog.States {
		members := catalog.DistrictsOf(s.Code)
		names := make([]string, len(members))
		for i, d := range members {
			names[i] = d.Name
		}

		var value float64
		if p := memberPrices(s.Code, members, prices); len(p) > 0 {
			value = pricing.Round2(pricing.Mean(p) * scale)
		} else {
			value = pricing.Round2(pricing.RandomPrice(b, rng) * scale)
		}

		states = append(states, models.StateIndex{
			Code:          s.Code,
			Name:          s.Name,
			Value:         value,
			DistrictCount: len(members),
			Districts:     names,
			Sentiment:     StateSentiment(0),
			AITrend:       StateTrend(0),
			Profile:       newStateProfile(value, rng),
		})
	}
	return states
}

func newStateProfile(value float64, rng pricing.Rand) models.StateProfile {
	u := func(lo, hi float64) float64 { return pricing.Uniform(rng, lo, hi) }
	return models.StateProfile{
		Volume:       int64(u(1_000_000, 50_000_000)),
		GDP:          pricing.Round2(u(1, 30)),
		Employment:   pricing.Round2(u(85, 97)),
		OpenInterest: int64(u(100_000, 10_000_000)),
		Volatility:   pricing.Round2(u(10, 40)),
		DayHigh:      pricing.Round2(value * (1 + u(0, 0.03))),
		DayLow:       pricing.Round2(value * (1 - u(0, 0.03))),
		High52W:      pricing.Round2(value * (1 + u(0.05, 0.3))),
		Low52W:       pricing.Round2(value * (1 - u(0.05, 0.3))),
		PutCallRatio: pricing.Round2(u(0.6, 1.5)),
		Beta:         pricing.Round2(u(0.7, 1.4)),
	}
}
