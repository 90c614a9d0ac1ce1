// Package stream distributes normalized quote updates to consumers.
package stream

import (
	"sync"
	"time"

	"quotewatch/internal/models"
)

// HubConfig holds configuration for the quote hub.
type HubConfig struct {
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{SubscriberBufferSize: 100}
}

// Consumer processes quote updates inline. Consumers are invoked
// synchronously from Publish, in registration order, so one publish runs to
// completion before the next begins.
type Consumer interface {
	// OnQuote is called for every published quote.
	OnQuote(q models.Quote)
	// Symbols returns the symbols this consumer is interested in.
	// Nil or empty means all symbols.
	Symbols() []string
}

// Hub fans quote updates out to registered consumers and to per-symbol
// channel subscribers. Channel sends are non-blocking: a slow subscriber
// loses quotes rather than stalling ingestion.
type Hub struct {
	config HubConfig

	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	consumers   []Consumer
	closed      bool

	metricsMu       sync.RWMutex
	quotesPublished uint64
	quotesDelivered uint64
	quotesDropped   uint64
}

// Subscriber is a channel subscription with drop accounting.
// DroppedCount is guarded by the hub's metrics lock.
type Subscriber struct {
	Channel      chan models.Quote
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string][]*Subscriber),
	}
}

// Publish distributes a quote to consumers and subscribers.
func (h *Hub) Publish(q models.Quote) {
	h.metricsMu.Lock()
	h.quotesPublished++
	h.metricsMu.Unlock()

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	consumers := make([]Consumer, len(h.consumers))
	copy(consumers, h.consumers)
	subs := h.subscribers[q.Symbol]
	h.mu.RUnlock()

	for _, c := range consumers {
		symbols := c.Symbols()
		if len(symbols) == 0 || containsSymbol(symbols, q.Symbol) {
			c.OnQuote(q)
		}
	}

	for _, sub := range subs {
		select {
		case sub.Channel <- q:
			h.metricsMu.Lock()
			h.quotesDelivered++
			h.metricsMu.Unlock()
		default:
			h.metricsMu.Lock()
			sub.DroppedCount++
			h.quotesDropped++
			h.metricsMu.Unlock()
		}
	}
}

// RegisterConsumer adds an inline consumer.
func (h *Hub) RegisterConsumer(c Consumer) {
	h.mu.Lock()
	h.consumers = append(h.consumers, c)
	h.mu.Unlock()
}

// UnregisterConsumer removes a consumer.
func (h *Hub) UnregisterConsumer(c Consumer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, reg := range h.consumers {
		if reg == c {
			h.consumers = append(h.consumers[:i], h.consumers[i+1:]...)
			break
		}
	}
}

// Subscribe returns a channel receiving the symbol's quote updates.
func (h *Hub) Subscribe(symbol string) <-chan models.Quote {
	ch := make(chan models.Quote, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (h *Hub) Unsubscribe(symbol string, ch <-chan models.Quote) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[symbol]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[symbol] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subscribers[symbol]) == 0 {
		delete(h.subscribers, symbol)
	}
}

// Close closes all subscriber channels and stops distribution.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, symbol)
	}
}

// Metrics contains hub delivery counters.
type Metrics struct {
	QuotesPublished uint64
	QuotesDelivered uint64
	QuotesDropped   uint64
	Subscribers     int
}

// GetMetrics returns the hub's delivery counters.
func (h *Hub) GetMetrics() Metrics {
	h.mu.RLock()
	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	h.mu.RUnlock()

	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()
	return Metrics{
		QuotesPublished: h.quotesPublished,
		QuotesDelivered: h.quotesDelivered,
		QuotesDropped:   h.quotesDropped,
		Subscribers:     count,
	}
}

func containsSymbol(symbols []string, symbol string) bool {
	for _, s := range symbols {
		if s == symbol {
			return true
		}
	}
	return false
}
