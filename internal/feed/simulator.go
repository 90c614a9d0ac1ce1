// Package feed provides a synthetic market-data source. It emits raw
// payloads in the heterogeneous shapes real transports use, so everything
// downstream goes through the normalization boundary exactly as live data
// would.
package feed

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"quotewatch/internal/ingest"
	"quotewatch/internal/models"
)

// Simulator generates random-walk quotes and trades for a symbol set.
type Simulator struct {
	symbols  []string
	interval time.Duration
	router   *ingest.Router
	logger   zerolog.Logger
	rng      *rand.Rand
	prices   map[string]float64
}

// NewSimulator creates a simulator pushing into the given router.
func NewSimulator(symbols []string, interval time.Duration, router *ingest.Router, logger zerolog.Logger) *Simulator {
	prices := make(map[string]float64, len(symbols))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, s := range symbols {
		prices[s] = 100 + rng.Float64()*900
	}
	return &Simulator{
		symbols:  symbols,
		interval: interval,
		router:   router,
		logger:   logger.With().Str("component", "feed").Logger(),
		rng:      rng,
		prices:   prices,
	}
}

// SeedHistory loads n synthetic base candles per symbol through the history
// path, so the run starts with a populated series.
func (s *Simulator) SeedHistory(n int, tf models.Timeframe) error {
	width := tf.Seconds()
	if width <= 0 {
		return fmt.Errorf("seed history: invalid timeframe %q", tf)
	}
	end := (time.Now().Unix() / width) * width

	for _, sym := range s.symbols {
		s.router.BeginHistory(sym, false)

		candles := make([]models.Candle, 0, n)
		price := s.prices[sym]
		for i := n - 1; i >= 0; i-- {
			open := price
			high := open * (1 + s.rng.Float64()*0.01)
			low := open * (1 - s.rng.Float64()*0.01)
			price = low + s.rng.Float64()*(high-low)
			candles = append(candles, models.Candle{
				Time:   end - int64(i)*width,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  price,
				Volume: float64(s.rng.Intn(10000)),
			})
		}
		s.prices[sym] = price

		err := s.router.ApplyHistory(sym, ingest.HistoryResult{
			Candles:        candles,
			RequestedLimit: n,
			Timeframe:      tf,
		}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// Run emits payloads until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for _, sym := range s.symbols {
				s.router.Dispatch(s.nextPayload(sym, now))
			}
		}
	}
}

// nextPayload advances the symbol's random walk and wraps the result in one
// of several wire shapes. Some shapes use string-typed numbers and
// single-letter keys on purpose.
func (s *Simulator) nextPayload(sym string, now time.Time) map[string]any {
	price := s.prices[sym]
	price += (s.rng.Float64() - 0.5) * 0.01 * price
	if price <= 0 {
		price = s.rng.Float64() * 100
	}
	s.prices[sym] = price

	spread := price * 0.0005
	volume := float64(s.rng.Intn(50000))

	switch s.rng.Intn(3) {
	case 0: // quote, canonical keys
		return map[string]any{
			"symbol":    sym,
			"bid_price": price - spread,
			"bid_size":  float64(s.rng.Intn(100) + 1),
			"ask_price": price + spread,
			"ask_size":  float64(s.rng.Intn(100) + 1),
			"volume":    volume,
			"timestamp": now.Unix(),
		}
	case 1: // quote, exchange-style short keys with string numbers
		return map[string]any{
			"s":  sym,
			"b":  strconv.FormatFloat(price-spread, 'f', 4, 64),
			"a":  strconv.FormatFloat(price+spread, 'f', 4, 64),
			"bs": "10",
			"as": "10",
			"T":  now.UnixMilli(),
		}
	default: // trade
		return map[string]any{
			"symbol": sym,
			"price":  price,
			"qty":    float64(s.rng.Intn(50) + 1),
			"time":   now.Unix(),
		}
	}
}
