// Package series provides the per-symbol, time-ordered, deduplicated OHLCV
// cache that every derived view is computed from.
package series

import (
	"sort"
	"sync"
	"time"

	"quotewatch/internal/models"
)

// IngestMode selects how a batch of candles is merged into a symbol's series.
type IngestMode string

const (
	// IngestReset discards the existing series and installs the batch.
	IngestReset IngestMode = "reset"
	// IngestAppend merges the batch after the existing series.
	IngestAppend IngestMode = "append"
	// IngestPrepend merges the batch before the existing series (backfill).
	IngestPrepend IngestMode = "prepend"
)

const (
	// DefaultBulkCap bounds a series after a bulk load.
	DefaultBulkCap = 5000
	// DefaultTickCap bounds a series on the live tick path.
	DefaultTickCap = 2000
)

// symbolState holds one symbol's series plus its load bookkeeping.
type symbolState struct {
	bars          []models.Candle
	loading       bool
	loadingMore   bool
	err           error
	hasMore       bool
	lastFetch     time.Time
	timeframeHint models.Timeframe
}

// Store is an explicit, injectable series cache instance. It performs no
// validation of incoming candles; malformed data is rejected upstream at the
// normalization boundary.
type Store struct {
	mu        sync.RWMutex
	symbols   map[string]*symbolState
	bulkCap   int
	tickCap   int
	listeners map[int]func(symbol string)
	nextID    int
}

// Option configures a Store.
type Option func(*Store)

// WithBulkCap overrides the bulk-load series cap.
func WithBulkCap(n int) Option {
	return func(s *Store) { s.bulkCap = n }
}

// WithTickCap overrides the tick-path series cap.
func WithTickCap(n int) Option {
	return func(s *Store) { s.tickCap = n }
}

// NewStore creates an empty series store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		symbols:   make(map[string]*symbolState),
		bulkCap:   DefaultBulkCap,
		tickCap:   DefaultTickCap,
		listeners: make(map[int]func(string)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to be called synchronously after every mutation of a
// symbol's series. The returned function removes the registration.
func (s *Store) OnChange(fn func(symbol string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(symbol string) {
	s.mu.RLock()
	fns := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(symbol)
	}
}

// state returns the symbol's state, creating it on first reference.
// Callers must hold the write lock.
func (s *Store) state(symbol string) *symbolState {
	st, ok := s.symbols[symbol]
	if !ok {
		st = &symbolState{}
		s.symbols[symbol] = st
	}
	return st
}

// Ingest merges a batch of candles into the symbol's series. Duplicate
// timestamps collapse to the most-recently-supplied candle, the result is
// sorted ascending and truncated to the bulk cap by dropping the oldest bars.
func (s *Store) Ingest(symbol string, candles []models.Candle, mode IngestMode) {
	s.mu.Lock()
	st := s.state(symbol)

	merged := make(map[int64]models.Candle)
	if mode != IngestReset {
		for _, c := range st.bars {
			merged[c.Time] = c
		}
	}
	// The incoming batch always wins a timestamp collision, regardless of
	// whether it lands before or after the existing series.
	for _, c := range candles {
		merged[c.Time] = c
	}

	bars := make([]models.Candle, 0, len(merged))
	for _, c := range merged {
		bars = append(bars, c)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })

	if len(bars) > s.bulkCap {
		bars = bars[len(bars)-s.bulkCap:]
	}
	st.bars = bars
	s.mu.Unlock()

	s.notify(symbol)
}

// AppendTick pushes a live candle onto the series. When the incoming candle
// shares its timestamp with the last stored one the period is still forming,
// so the stored candle is replaced rather than duplicated.
func (s *Store) AppendTick(symbol string, candle models.Candle) {
	s.mu.Lock()
	st := s.state(symbol)

	n := len(st.bars)
	if n > 0 && st.bars[n-1].Time == candle.Time {
		st.bars[n-1] = candle
	} else {
		st.bars = append(st.bars, candle)
		if len(st.bars) > s.tickCap {
			st.bars = st.bars[len(st.bars)-s.tickCap:]
		}
	}
	s.mu.Unlock()

	s.notify(symbol)
}

// Bars returns a copy of the symbol's series.
func (s *Store) Bars(symbol string) []models.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.symbols[symbol]
	if !ok || len(st.bars) == 0 {
		return nil
	}
	return append([]models.Candle(nil), st.bars...)
}

// Count returns the number of bars held for the symbol.
func (s *Store) Count(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.symbols[symbol]; ok {
		return len(st.bars)
	}
	return 0
}

// HasData reports whether the symbol holds at least one bar.
func (s *Store) HasData(symbol string) bool {
	return s.Count(symbol) > 0
}

// OldestTime returns the timestamp of the oldest bar.
func (s *Store) OldestTime(symbol string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.symbols[symbol]; ok && len(st.bars) > 0 {
		return st.bars[0].Time, true
	}
	return 0, false
}

// NewestTime returns the timestamp of the newest bar.
func (s *Store) NewestTime(symbol string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.symbols[symbol]; ok && len(st.bars) > 0 {
		return st.bars[len(st.bars)-1].Time, true
	}
	return 0, false
}

// LastBar returns the newest bar for the symbol.
func (s *Store) LastBar(symbol string) (models.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.symbols[symbol]; ok && len(st.bars) > 0 {
		return st.bars[len(st.bars)-1], true
	}
	return models.Candle{}, false
}

// SetLoading flips the symbol's loading flags. Starting a new load clears any
// recorded error; finishing one leaves it alone.
func (s *Store) SetLoading(symbol string, loading, loadingMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(symbol)
	st.loading = loading
	st.loadingMore = loadingMore
	if loading || loadingMore {
		st.err = nil
	}
}

// SetError records a fetch error on the symbol and clears both loading flags.
func (s *Store) SetError(symbol string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(symbol)
	st.err = err
	st.loading = false
	st.loadingMore = false
}

// SetFetchResult stamps the fetch time and whether older data remains.
func (s *Store) SetFetchResult(symbol string, hasMore bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(symbol)
	st.hasMore = hasMore
	st.lastFetch = at
}

// SetTimeframeHint records the base timeframe the series was loaded at.
func (s *Store) SetTimeframeHint(symbol string, tf models.Timeframe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(symbol).timeframeHint = tf
}

// Status describes a symbol's load bookkeeping.
type Status struct {
	Loading       bool
	LoadingMore   bool
	Err           error
	HasMore       bool
	LastFetch     time.Time
	TimeframeHint models.Timeframe
}

// Status returns the symbol's load bookkeeping.
func (s *Store) Status(symbol string) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.symbols[symbol]
	if !ok {
		return Status{}
	}
	return Status{
		Loading:       st.loading,
		LoadingMore:   st.loadingMore,
		Err:           st.err,
		HasMore:       st.hasMore,
		LastFetch:     st.lastFetch,
		TimeframeHint: st.timeframeHint,
	}
}

// Clear drops all state held for the symbol.
func (s *Store) Clear(symbol string) {
	s.mu.Lock()
	_, ok := s.symbols[symbol]
	delete(s.symbols, symbol)
	s.mu.Unlock()

	if ok {
		s.notify(symbol)
	}
}

// Symbols returns every symbol with state in the store.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		symbols = append(symbols, sym)
	}
	return symbols
}
