// Package aggregate derives fixed-timeframe bucketed candle views from the
// base series cache.
package aggregate

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"quotewatch/internal/models"
	"quotewatch/internal/series"
)

// Engine recomputes every timeframe view of a symbol from its base series.
// Views are a pure function of the base series: each store mutation triggers
// a full recompute, which stays cheap because the base series is capped.
type Engine struct {
	store      *series.Store
	logger     zerolog.Logger
	timeframes []models.Timeframe

	mu    sync.RWMutex
	views map[string]map[models.Timeframe][]models.Candle

	unsubscribe func()
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTimeframes overrides the derived timeframe set.
func WithTimeframes(tfs []models.Timeframe) EngineOption {
	return func(e *Engine) { e.timeframes = tfs }
}

// NewEngine creates an engine over the given store and subscribes to its
// change notifications.
func NewEngine(store *series.Store, logger zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:      store,
		logger:     logger.With().Str("component", "aggregate").Logger(),
		timeframes: models.AllTimeframes(),
		views:      make(map[string]map[models.Timeframe][]models.Candle),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.unsubscribe = store.OnChange(e.Recompute)
	return e
}

// Close detaches the engine from the store.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Recompute rebuilds all timeframe views for the symbol. Timeframes are
// computed independently: a failure in one logs a recoverable error and keeps
// that timeframe's previous view, while the others still update.
func (e *Engine) Recompute(symbol string) {
	bars := e.store.Bars(symbol)

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(bars) == 0 {
		delete(e.views, symbol)
		return
	}

	byTF, ok := e.views[symbol]
	if !ok {
		byTF = make(map[models.Timeframe][]models.Candle)
		e.views[symbol] = byTF
	}

	for _, tf := range e.timeframes {
		view, err := resample(bars, tf)
		if err != nil {
			e.logger.Error().
				Str("symbol", symbol).
				Str("timeframe", string(tf)).
				Err(err).
				Msg("timeframe recompute failed, keeping previous view")
			continue
		}
		byTF[tf] = view
	}
}

// resample buckets a sorted base series into one timeframe. Panics inside the
// bucketing turn into an error so a bad timeframe cannot take down the rest.
func resample(bars []models.Candle, tf models.Timeframe) (out []models.Candle, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("resample %s: %v", tf, r)
		}
	}()

	width := tf.Seconds()
	if width <= 0 {
		return nil, fmt.Errorf("resample %s: invalid bucket width", tf)
	}

	// Input is ascending, so each bucket's first bar supplies the open and
	// its last bar the close.
	for _, bar := range bars {
		bucket := (bar.Time / width) * width
		if n := len(out); n > 0 && out[n-1].Time == bucket {
			cur := &out[n-1]
			if bar.High > cur.High {
				cur.High = bar.High
			}
			if bar.Low < cur.Low {
				cur.Low = bar.Low
			}
			cur.Close = bar.Close
			cur.Volume += bar.Volume
			continue
		}
		out = append(out, models.Candle{
			Time:   bucket,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}
	return out, nil
}

// View returns a copy of one timeframe's candles for the symbol.
func (e *Engine) View(symbol string, tf models.Timeframe) []models.Candle {
	e.mu.RLock()
	defer e.mu.RUnlock()

	byTF, ok := e.views[symbol]
	if !ok {
		return nil
	}
	view, ok := byTF[tf]
	if !ok {
		return nil
	}
	return append([]models.Candle(nil), view...)
}

// Timeframes returns the timeframes currently materialized for a symbol.
func (e *Engine) Timeframes(symbol string) []models.Timeframe {
	e.mu.RLock()
	defer e.mu.RUnlock()

	byTF, ok := e.views[symbol]
	if !ok {
		return nil
	}
	tfs := make([]models.Timeframe, 0, len(byTF))
	for tf := range byTF {
		tfs = append(tfs, tf)
	}
	return tfs
}
