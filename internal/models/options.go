package models

// OptionChain represents a synthetic option chain around a spot price.
type OptionChain struct {
	Symbol       string         `json:"symbol"`
	SpotPrice    float64        `json:"spot_price"`
	Interval     float64        `json:"interval"`
	ATMStrike    float64        `json:"atm_strike"`
	Strikes      []OptionStrike `json:"strikes"`
	MaxPain      float64        `json:"max_pain"`
	PutCallRatio float64        `json:"put_call_ratio"`
	TotalCallOI  int64          `json:"total_call_oi"`
	TotalPutOI   int64          `json:"total_put_oi"`
}

// Moneyness labels a strike relative to spot from the call's perspective.
type Moneyness string

const (
	MoneynessITM Moneyness = "ITM"
	MoneynessATM Moneyness = "ATM"
	MoneynessOTM Moneyness = "OTM"
)

// OptionStrike represents a single strike in the option chain.
type OptionStrike struct {
	Strike    float64    `json:"strike"`
	Moneyness Moneyness  `json:"moneyness"`
	Call      OptionData `json:"call"`
	Put       OptionData `json:"put"`
}

// OptionData represents option data for a single contract.
type OptionData struct {
	LTP           float64      `json:"ltp"`
	Intrinsic     float64      `json:"intrinsic"`
	TimeValue     float64      `json:"time_value"`
	OI            int64        `json:"oi"`
	OIChange      float64      `json:"oi_change"`
	Volume        int64        `json:"volume"`
	IV            float64      `json:"iv"`
	ChangePercent float64      `json:"change_percent"`
	Greeks        OptionGreeks `json:"greeks"`
}

// OptionGreeks represents approximated option Greeks.
type OptionGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// FuturesChain represents the futures term structure for one underlying.
type FuturesChain struct {
	Symbol    string           `json:"symbol"`
	SpotPrice float64          `json:"spot_price"`
	Contracts []FutureContract `json:"contracts"`
}

// FutureContract represents a single futures expiry.
type FutureContract struct {
	Expiry        string    `json:"expiry"`
	LTP           float64   `json:"ltp"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	OI            int64     `json:"oi"`
	OIChange      float64   `json:"oi_change"`
	Basis         float64   `json:"basis"` // Futures - Spot
	BasisPercent  float64   `json:"basis_percent"`
	Sentiment     Sentiment `json:"sentiment"`
	NearMonth     bool      `json:"near_month"`
}
