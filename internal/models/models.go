// Package models provides domain models for the market simulator.
package models

import (
	"time"
)

// Sentiment is the coarse market mood label shown next to an index or contract.
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

// Trend is the AI trend arrow shown on state cards.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// InstrumentKind classifies what a tick or tape entry refers to.
type InstrumentKind string

const (
	KindDistrict   InstrumentKind = "DISTRICT"
	KindState      InstrumentKind = "STATE"
	KindNationwide InstrumentKind = "NATIONWIDE"
	KindMutualFund InstrumentKind = "MUTUAL_FUND"
)

// BharatSymbol is the symbol under which the nationwide index is published.
const BharatSymbol = "BHARAT"

// Tick represents real-time synthetic market data for one symbol.
type Tick struct {
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name,omitempty"`
	Kind          InstrumentKind `json:"kind"`
	LTP           float64        `json:"ltp"`
	Open          float64        `json:"open"`
	High          float64        `json:"high"`
	Low           float64        `json:"low"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"change_percent"`
	Volume        int64          `json:"volume,omitempty"`
	Sentiment     Sentiment      `json:"sentiment,omitempty"`
	Sequence      uint64         `json:"sequence"`
	Timestamp     time.Time      `json:"timestamp"`
}
