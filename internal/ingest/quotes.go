package ingest

import (
	"sync"

	"quotewatch/internal/models"
)

// QuoteBoard is the live latest-value quote map, one entry per symbol.
// Consumers read it pull-based; writes are last-value overwrites.
type QuoteBoard struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
}

// NewQuoteBoard creates an empty board.
func NewQuoteBoard() *QuoteBoard {
	return &QuoteBoard{quotes: make(map[string]models.Quote)}
}

// Set overwrites the symbol's latest quote.
func (b *QuoteBoard) Set(q models.Quote) {
	b.mu.Lock()
	b.quotes[q.Symbol] = q
	b.mu.Unlock()
}

// Get returns the latest quote for a symbol.
func (b *QuoteBoard) Get(symbol string) (models.Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[symbol]
	return q, ok
}

// Snapshot returns the latest quotes for the given symbols, skipping symbols
// with no quote yet.
func (b *QuoteBoard) Snapshot(symbols []string) map[string]models.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]models.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := b.quotes[s]; ok {
			out[s] = q
		}
	}
	return out
}

// Remove drops the symbol's quote.
func (b *QuoteBoard) Remove(symbol string) {
	b.mu.Lock()
	delete(b.quotes, symbol)
	b.mu.Unlock()
}

// Len returns the number of symbols with a quote.
func (b *QuoteBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quotes)
}
