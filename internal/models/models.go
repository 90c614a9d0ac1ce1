// Package models provides domain models for the market-data cache and alert engine.
package models

import (
	"time"
)

// Candle represents OHLCV data for one fixed time bucket.
// Time is the bucket-aligned start of the period in epoch seconds.
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote represents the latest bid/ask state for a symbol.
// Volume is nil when the upstream payload carried no volume field.
type Quote struct {
	Symbol    string
	BidPrice  float64
	BidSize   float64
	AskPrice  float64
	AskSize   float64
	Volume    *float64
	Timestamp time.Time
}

// Mid returns the quote mid-price (bid+ask)/2.
func (q Quote) Mid() float64 {
	return (q.BidPrice + q.AskPrice) / 2
}

// Trade represents a single executed trade on a symbol.
type Trade struct {
	Symbol string
	Price  float64
	Size   float64
	Time   int64 // epoch seconds
}

// Position represents an open position carried in a user update snapshot.
// Positions ride along with quote updates; alert conditions do not read them
// yet, but the snapshot shape carries them for consumers that do.
type Position struct {
	Symbol   string
	Quantity float64
	AvgPrice float64
}

// Timeframe is a bucket duration used for aggregation, e.g. "1m", "1h".
type Timeframe string

const (
	Timeframe1Min  Timeframe = "1m"
	Timeframe5Min  Timeframe = "5m"
	Timeframe15Min Timeframe = "15m"
	Timeframe1Hour Timeframe = "1h"
	Timeframe4Hour Timeframe = "4h"
	Timeframe1Day  Timeframe = "1d"
	Timeframe1Week Timeframe = "1w"
)

// AllTimeframes returns every timeframe the aggregation engine derives.
func AllTimeframes() []Timeframe {
	return []Timeframe{
		Timeframe1Min, Timeframe5Min, Timeframe15Min,
		Timeframe1Hour, Timeframe4Hour, Timeframe1Day, Timeframe1Week,
	}
}

// Seconds returns the bucket width of the timeframe in seconds.
func (t Timeframe) Seconds() int64 {
	switch t {
	case Timeframe1Min:
		return 60
	case Timeframe5Min:
		return 5 * 60
	case Timeframe15Min:
		return 15 * 60
	case Timeframe1Hour:
		return 60 * 60
	case Timeframe4Hour:
		return 4 * 60 * 60
	case Timeframe1Day:
		return 24 * 60 * 60
	case Timeframe1Week:
		return 7 * 24 * 60 * 60
	default:
		return 0
	}
}
