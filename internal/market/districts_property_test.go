package market

import (
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"zonix/internal/pricing"
)

// Property: for any seed and any number of ticks, every district price stays
// inside the configured bounds and no district is added or lost.
func TestProperty_DistrictPricesStayBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	catalog := DefaultCatalog()

	properties.Property("district prices remain within [min, max]", prop.ForAll(
		func(seed int64, ticks int, lo, width float64) bool {
			b := pricing.Bounds{Min: lo, Max: lo + width}
			rng := rand.New(rand.NewSource(seed))
			store, err := NewDistrictStore(catalog.Districts, b, rng)
			if err != nil {
				return false
			}
			for i := 0; i < ticks; i++ {
				store.Tick()
				if store.Len() != len(catalog.Districts) {
					return false
				}
				for k, p := range store.Prices() {
					if !b.Contains(p) {
						t.Logf("%s = %v outside %+v", k, p, b)
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 200),
		gen.Float64Range(1, 100),
		gen.Float64Range(0.5, 600),
	))

	properties.TestingRun(t)
}

// Property: TickDistrictPrices never modifies its input.
func TestProperty_TickIsPure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	catalog := DefaultCatalog()
	b := pricing.DefaultBounds()

	properties.Property("input map unchanged", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			prices := InitDistrictPrices(catalog.Districts, b, rng)
			before := make(map[DistrictKey]float64, len(prices))
			for k, v := range prices {
				before[k] = v
			}
			_ = TickDistrictPrices(prices, b, rng)
			for k, v := range before {
				if prices[k] != v {
					return false
				}
			}
			return len(prices) == len(before)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
