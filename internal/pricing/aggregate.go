package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// PercentChange returns the change from oldValue to newValue in percent,
// rounded to 2 decimals. A zero oldValue yields 0.
func PercentChange(oldValue, newValue float64) float64 {
	if oldValue == 0 {
		return 0
	}
	return Round2((newValue - oldValue) / oldValue * 100)
}

// Mean returns the arithmetic mean rounded to 2 decimals, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Round2(sum / float64(len(values)))
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds half away from zero to the given number of decimal places.
// Non-finite input is returned unchanged.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
