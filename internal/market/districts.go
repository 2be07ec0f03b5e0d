package market

import (
	"zonix/internal/models"
	"zonix/internal/pricing"
)

// InitDistrictPrices draws an initial price inside b for every district.
func InitDistrictPrices(districts []DistrictKey, b pricing.Bounds, rng pricing.Rand) map[DistrictKey]float64 {
	prices := make(map[DistrictKey]float64, len(districts))
	for _, d := range districts {
		prices[d] = pricing.RandomPrice(b, rng)
	}
	return prices
}

// TickDistrictPrices returns a new map with every price advanced one step.
// Districts move independently. Keys are visited in sorted order so a seeded
// rng reproduces the same path.
func TickDistrictPrices(prices map[DistrictKey]float64, b pricing.Bounds, rng pricing.Rand) map[DistrictKey]float64 {
	next := make(map[DistrictKey]float64, len(prices))
	for _, k := range sortedKeys(prices) {
		next[k] = pricing.NextPrice(prices[k], b, rng)
	}
	return next
}

// DistrictStore is the single source of truth for district prices. Only Tick
// mutates it.
type DistrictStore struct {
	bounds pricing.Bounds
	rng    pricing.Rand
	prices map[DistrictKey]float64
}

// NewDistrictStore seeds a store for the given districts.
func NewDistrictStore(districts []DistrictKey, b pricing.Bounds, rng pricing.Rand) (*DistrictStore, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &DistrictStore{
		bounds: b,
		rng:    rng,
		prices: InitDistrictPrices(districts, b, rng),
	}, nil
}

// Tick advances every district by one step.
func (s *DistrictStore) Tick() {
	s.prices = TickDistrictPrices(s.prices, s.bounds, s.rng)
}

// Prices returns a copy of the current prices.
func (s *DistrictStore) Prices() map[DistrictKey]float64 {
	out := make(map[DistrictKey]float64, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}

// Price returns the current price of one district.
func (s *DistrictStore) Price(k DistrictKey) (float64, bool) {
	p, ok := s.prices[k]
	return p, ok
}

// Bounds returns the configured price range.
func (s *DistrictStore) Bounds() pricing.Bounds {
	return s.bounds
}

// Len returns the number of districts.
func (s *DistrictStore) Len() int {
	return len(s.prices)
}

// List returns the prices as a slice ordered by state and name.
func (s *DistrictStore) List() []models.DistrictPrice {
	return districtList(s.prices)
}

func districtList(prices map[DistrictKey]float64) []models.DistrictPrice {
	keys := sortedKeys(prices)
	out := make([]models.DistrictPrice, len(keys))
	for i, k := range keys {
		out[i] = models.DistrictPrice{StateCode: k.StateCode, Name: k.Name, Price: prices[k]}
	}
	return out
}
