package ingest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"quotewatch/internal/models"
	"quotewatch/internal/series"
)

// Origin describes why a bar is being routed.
type Origin string

const (
	// OriginInitial is the first historical load for a symbol.
	OriginInitial Origin = "initial"
	// OriginBackfill is an older-data page fetched behind the series.
	OriginBackfill Origin = "backfill"
	// OriginLive is a streaming tick-level update.
	OriginLive Origin = "live"
)

// Publisher receives every normalized quote after it lands on the board.
// The stream hub implements it.
type Publisher interface {
	Publish(q models.Quote)
}

// HistoryResult is the outcome of one historical fetch page. The paging
// mechanics live upstream; the router only decides how the page merges and
// whether more data remains.
type HistoryResult struct {
	Candles        []models.Candle
	RequestedLimit int
	Timeframe      models.Timeframe
	Backfill       bool
}

// Router routes normalized messages into the series store, the quote board
// and the alert pipeline.
type Router struct {
	store     *series.Store
	quotes    *QuoteBoard
	publisher Publisher
	logger    zerolog.Logger
	clock     func() time.Time

	// baseBucket is the bucket width trades coalesce into when a symbol has
	// no timeframe hint yet.
	baseBucket int64
}

// NewRouter creates a router over the given store and quote board. publisher
// may be nil when no alert pipeline is attached.
func NewRouter(store *series.Store, quotes *QuoteBoard, publisher Publisher, logger zerolog.Logger) *Router {
	return &Router{
		store:      store,
		quotes:     quotes,
		publisher:  publisher,
		logger:     logger.With().Str("component", "ingest").Logger(),
		clock:      time.Now,
		baseBucket: models.Timeframe1Min.Seconds(),
	}
}

// Dispatch normalizes a raw payload and routes the result. Malformed input is
// dropped here, counted but never propagated.
func (r *Router) Dispatch(raw any) {
	switch msg := Normalize(raw).(type) {
	case BarMessage:
		r.RouteBar(msg.Symbol, msg.Candle, OriginLive)
	case QuoteMessage:
		r.RouteQuote(msg.Quote)
	case TradeMessage:
		r.RouteTrade(msg.Trade)
	default:
		r.logger.Debug().Msg("dropped malformed payload")
	}
}

// RouteBar merges one candle into the symbol's series according to its
// origin: initial loads reset, backfills prepend, live ticks coalesce.
func (r *Router) RouteBar(symbol string, candle models.Candle, origin Origin) {
	switch origin {
	case OriginInitial:
		r.store.Ingest(symbol, []models.Candle{candle}, series.IngestReset)
	case OriginBackfill:
		r.store.Ingest(symbol, []models.Candle{candle}, series.IngestPrepend)
	default:
		r.store.AppendTick(symbol, candle)
	}
}

// RouteQuote overwrites the live quote and hands it to the alert pipeline.
func (r *Router) RouteQuote(q models.Quote) {
	r.quotes.Set(q)
	if r.publisher != nil {
		r.publisher.Publish(q)
	}
}

// RouteTrade merges a trade into the symbol's forming base candle.
func (r *Router) RouteTrade(t models.Trade) {
	width := r.baseBucket
	if hint := r.store.Status(t.Symbol).TimeframeHint; hint != "" {
		if s := hint.Seconds(); s > 0 {
			width = s
		}
	}
	bucket := (t.Time / width) * width

	candle := models.Candle{
		Time:   bucket,
		Open:   t.Price,
		High:   t.Price,
		Low:    t.Price,
		Close:  t.Price,
		Volume: t.Size,
	}
	if last, ok := r.store.LastBar(t.Symbol); ok && last.Time == bucket {
		candle.Open = last.Open
		if last.High > candle.High {
			candle.High = last.High
		}
		if last.Low < candle.Low {
			candle.Low = last.Low
		}
		candle.Volume = last.Volume + t.Size
	}
	r.store.AppendTick(t.Symbol, candle)
}

// BeginHistory flags a historical fetch as in flight. Backfills set the
// loading-more flag instead of the initial-load one.
func (r *Router) BeginHistory(symbol string, backfill bool) {
	r.store.SetLoading(symbol, !backfill, backfill)
}

// ApplyHistory records the outcome of a historical fetch. A fetch error is
// stored on the symbol's state and also returned, so both the cached state
// and the caller's request reflect the failure.
func (r *Router) ApplyHistory(symbol string, res HistoryResult, fetchErr error) error {
	if fetchErr != nil {
		r.store.SetError(symbol, fetchErr)
		return fmt.Errorf("history fetch %s: %w", symbol, fetchErr)
	}

	r.store.SetLoading(symbol, false, false)
	mode := series.IngestReset
	if res.Backfill {
		mode = series.IngestPrepend
	}
	r.store.Ingest(symbol, res.Candles, mode)

	hasMore := res.RequestedLimit > 0 && len(res.Candles) >= res.RequestedLimit
	r.store.SetFetchResult(symbol, hasMore, r.clock())
	if res.Timeframe != "" {
		r.store.SetTimeframeHint(symbol, res.Timeframe)
	}
	return nil
}
