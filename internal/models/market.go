package models

import "time"

// DistrictPrice is the live synthetic price of one district token.
type DistrictPrice struct {
	StateCode string  `json:"state_code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

// StateProfile holds the descriptive basket generated once per session.
// None of these are recomputed from the live feed.
type StateProfile struct {
	Volume       int64   `json:"volume"`
	GDP          float64 `json:"gdp"`        // INR lakh crore
	Employment   float64 `json:"employment"` // percent
	OpenInterest int64   `json:"open_interest"`
	Volatility   float64 `json:"volatility"`
	DayHigh      float64 `json:"day_high"`
	DayLow       float64 `json:"day_low"`
	High52W      float64 `json:"high_52w"`
	Low52W       float64 `json:"low_52w"`
	PutCallRatio float64 `json:"put_call_ratio"`
	Beta         float64 `json:"beta"`
}

// StateIndex is a state's index derived from its member districts.
type StateIndex struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Value         float64      `json:"value"`
	Change        float64      `json:"change"`
	DistrictCount int          `json:"district_count"`
	Districts     []string     `json:"districts"`
	Sentiment     Sentiment    `json:"sentiment"`
	AITrend       Trend        `json:"ai_trend"`
	Profile       StateProfile `json:"profile"`
}

// NationwideIndex is the Bharat composite index.
type NationwideIndex struct {
	Value     float64   `json:"value"`
	Change    float64   `json:"change"`
	Baseline  float64   `json:"baseline"`
	Sentiment Sentiment `json:"sentiment"`
}

// Snapshot is an immutable view of one engine pass. Consumers must treat
// every slice as read-only.
type Snapshot struct {
	SessionID  string          `json:"session_id"`
	Sequence   uint64          `json:"sequence"`
	Timestamp  time.Time       `json:"timestamp"`
	Districts  []DistrictPrice `json:"districts"`
	States     []StateIndex    `json:"states"`
	Nationwide NationwideIndex `json:"nationwide"`
}

// State returns the state index with the given code.
func (s *Snapshot) State(code string) (StateIndex, bool) {
	for _, st := range s.States {
		if st.Code == code {
			return st, true
		}
	}
	return StateIndex{}, false
}

// DistrictsOf returns the district prices belonging to a state.
func (s *Snapshot) DistrictsOf(code string) []DistrictPrice {
	out := make([]DistrictPrice, 0)
	for _, d := range s.Districts {
		if d.StateCode == code {
			out = append(out, d)
		}
	}
	return out
}

// Spot returns the live value of an index symbol: BHARAT for the nationwide
// index or a state code.
func (s *Snapshot) Spot(symbol string) (float64, bool) {
	if symbol == BharatSymbol {
		return s.Nationwide.Value, true
	}
	if st, ok := s.State(symbol); ok {
		return st.Value, true
	}
	return 0, false
}
