package alerts

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"quotewatch/internal/ingest"
	"quotewatch/internal/models"
)

// ProcessorConfig holds configuration for the batch processor.
type ProcessorConfig struct {
	// Interval is the drain tick period.
	Interval time.Duration
	// MaxBatchSize bounds how many queued user entries one tick drains.
	// Overflow stays queued for the next tick.
	MaxBatchSize int
}

// DefaultProcessorConfig returns the default processor configuration.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Interval:     time.Second,
		MaxBatchSize: 1000,
	}
}

// TriggerFunc is invoked synchronously when an alert fires. Errors or panics
// inside the callback are deliberately not caught here.
type TriggerFunc func(alert models.Alert)

// Processor drains per-user update snapshots on a schedule and evaluates the
// owning user's alerts against them. Between ticks at most one snapshot is
// held per user; a newer one replaces the older (coalescing, not history).
type Processor struct {
	config    ProcessorConfig
	registry  *Registry
	board     *ingest.QuoteBoard
	scheduler Scheduler
	logger    zerolog.Logger
	clock     func() time.Time
	onTrigger TriggerFunc

	mu           sync.Mutex
	queue        map[string]models.UpdateBatch
	prev         map[string]models.Quote
	quoteTouched map[string]time.Time
	alertTouched map[string]time.Time
}

// NewProcessor creates a processor with the default interval scheduler.
func NewProcessor(registry *Registry, board *ingest.QuoteBoard, logger zerolog.Logger) *Processor {
	return NewProcessorWithConfig(DefaultProcessorConfig(), registry, board, logger)
}

// NewProcessorWithConfig creates a processor with custom configuration.
func NewProcessorWithConfig(config ProcessorConfig, registry *Registry, board *ingest.QuoteBoard, logger zerolog.Logger) *Processor {
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = DefaultProcessorConfig().MaxBatchSize
	}
	return &Processor{
		config:       config,
		registry:     registry,
		board:        board,
		scheduler:    NewIntervalScheduler(config.Interval),
		logger:       logger.With().Str("component", "alerts").Logger(),
		clock:        time.Now,
		queue:        make(map[string]models.UpdateBatch),
		prev:         make(map[string]models.Quote),
		quoteTouched: make(map[string]time.Time),
		alertTouched: make(map[string]time.Time),
	}
}

// SetScheduler swaps the drain scheduler. Must be called before Start.
func (p *Processor) SetScheduler(s Scheduler) {
	p.scheduler = s
}

// SetClock overrides the time source.
func (p *Processor) SetClock(clock func() time.Time) {
	p.clock = clock
}

// SetOnTrigger sets the callback invoked when an alert fires.
func (p *Processor) SetOnTrigger(fn TriggerFunc) {
	p.onTrigger = fn
}

// Start begins the drain schedule.
func (p *Processor) Start() {
	p.scheduler.Start(p.Tick)
}

// Stop halts the drain schedule.
func (p *Processor) Stop() {
	p.scheduler.Stop()
}

// OnQuote implements stream.Consumer. Every affected user (anyone with an
// alert referencing the quote's symbol) gets a fresh snapshot of the quotes
// their alerts care about, replacing any snapshot still pending.
func (p *Processor) OnQuote(q models.Quote) {
	for _, userID := range p.registry.UsersFor(q.Symbol) {
		var symbols []string
		seen := make(map[string]struct{})
		for _, alert := range p.registry.ByUser(userID) {
			for _, sym := range alert.Symbols() {
				if _, ok := seen[sym]; ok {
					continue
				}
				seen[sym] = struct{}{}
				symbols = append(symbols, sym)
			}
		}
		p.Enqueue(models.UpdateBatch{
			UserID: userID,
			Quotes: p.board.Snapshot(symbols),
		})
	}
}

// Symbols implements stream.Consumer. Nil means all symbols: the symbol
// filter lives in the registry's reverse index.
func (p *Processor) Symbols() []string {
	return nil
}

// Enqueue stores a user's pending snapshot, replacing any previous one.
func (p *Processor) Enqueue(batch models.UpdateBatch) {
	p.mu.Lock()
	p.queue[batch.UserID] = batch
	p.mu.Unlock()
}

// PendingUsers returns the number of users with a queued snapshot.
func (p *Processor) PendingUsers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Tick drains up to MaxBatchSize queued snapshots and evaluates them.
func (p *Processor) Tick() {
	p.mu.Lock()
	batches := make([]models.UpdateBatch, 0, len(p.queue))
	for userID, batch := range p.queue {
		if len(batches) >= p.config.MaxBatchSize {
			break
		}
		batches = append(batches, batch)
		delete(p.queue, userID)
	}
	p.mu.Unlock()

	for _, batch := range batches {
		p.processUser(batch)
	}
}

// processUser evaluates one user's alerts against their snapshot. Every
// condition of an alert must hold in this same pass for it to fire.
func (p *Processor) processUser(batch models.UpdateBatch) {
	now := p.clock()
	userAlerts := p.registry.ByUser(batch.UserID)
	if len(userAlerts) == 0 {
		return
	}

	// Resolve the current quote per referenced symbol: the snapshot wins,
	// the live board fills gaps.
	current := make(map[string]models.Quote)
	for _, alert := range userAlerts {
		for _, sym := range alert.Symbols() {
			if _, ok := current[sym]; ok {
				continue
			}
			if q, ok := batch.Quotes[sym]; ok {
				current[sym] = q
			} else if q, ok := p.board.Get(sym); ok {
				current[sym] = q
			}
		}
	}

	p.mu.Lock()
	previous := make(map[string]models.Quote, len(current))
	for sym := range current {
		if q, ok := p.prev[sym]; ok {
			previous[sym] = q
		}
	}
	p.mu.Unlock()

	for _, alert := range userAlerts {
		p.mu.Lock()
		p.alertTouched[alert.ID] = now
		p.mu.Unlock()

		if !alert.Active || alert.InCooldown(now) {
			continue
		}
		if p.matches(alert, current, previous) {
			p.fire(alert, now)
		}
	}

	// One step of history: the quotes just processed become the previous
	// quotes for the next evaluation of these symbols.
	p.mu.Lock()
	for sym, q := range current {
		p.prev[sym] = q
		p.quoteTouched[sym] = now
	}
	p.mu.Unlock()
}

func (p *Processor) matches(alert models.Alert, current, previous map[string]models.Quote) bool {
	if len(alert.Conditions) == 0 {
		return false
	}
	for _, cond := range alert.Conditions {
		cur, ok := current[cond.Symbol]
		if !ok {
			return false
		}
		prev, ok := previous[cond.Symbol]
		if !ok {
			prev = cur
		}
		if !Evaluate(cond, cur, prev) {
			return false
		}
	}
	return true
}

func (p *Processor) fire(alert models.Alert, now time.Time) {
	if err := p.registry.MarkTriggered(alert.ID, now); err != nil {
		p.logger.Warn().Str("alert", alert.ID).Err(err).Msg("alert vanished before trigger")
		return
	}
	p.logger.Info().
		Str("alert", alert.ID).
		Str("user", alert.UserID).
		Str("name", alert.Name).
		Msg("alert triggered")

	if p.onTrigger != nil {
		fired, _ := p.registry.Get(alert.ID)
		p.onTrigger(fired)
	}
}

// CleanupStaleData prunes previous-quote snapshots and alerts untouched for
// longer than maxAge. The embedding application schedules this explicitly;
// the drain tick never does.
func (p *Processor) CleanupStaleData(maxAge time.Duration) {
	cutoff := p.clock().Add(-maxAge)

	p.mu.Lock()
	for sym, touched := range p.quoteTouched {
		if touched.Before(cutoff) {
			delete(p.prev, sym)
			delete(p.quoteTouched, sym)
		}
	}
	p.mu.Unlock()

	for _, alert := range p.registry.All() {
		p.mu.Lock()
		touched, ok := p.alertTouched[alert.ID]
		p.mu.Unlock()
		if !ok {
			touched = alert.CreatedAt
		}
		if touched.Before(cutoff) {
			p.registry.Remove(alert.ID)
			p.mu.Lock()
			delete(p.alertTouched, alert.ID)
			p.mu.Unlock()
			p.logger.Debug().Str("alert", alert.ID).Msg("pruned stale alert")
		}
	}
}
