// Package alerts holds alert definitions and evaluates them against
// streaming quotes under batching and cooldown rules.
package alerts

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"quotewatch/internal/models"
)

// ErrAlertNotFound is returned when an alert id has no entry.
var ErrAlertNotFound = errors.New("alert not found")

// Registry owns every alert definition. Alerts are mutated only through
// registry operations; reads hand out copies. A symbol reverse index keeps
// per-symbol lookup O(k) with no full scan.
type Registry struct {
	mu       sync.RWMutex
	alerts   map[string]*models.Alert
	byUser   map[string]map[string]struct{}
	bySymbol map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		alerts:   make(map[string]*models.Alert),
		byUser:   make(map[string]map[string]struct{}),
		bySymbol: make(map[string]map[string]struct{}),
	}
}

// Add stores an alert and indexes it by user and by every condition symbol.
// Re-adding an id replaces the previous definition.
func (r *Registry) Add(alert models.Alert) error {
	if alert.ID == "" {
		return fmt.Errorf("add alert: empty id")
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[alert.ID]; ok {
		r.unindexLocked(alert.ID)
	}

	stored := cloneAlert(&alert)
	r.alerts[alert.ID] = &stored

	if r.byUser[alert.UserID] == nil {
		r.byUser[alert.UserID] = make(map[string]struct{})
	}
	r.byUser[alert.UserID][alert.ID] = struct{}{}

	for _, sym := range stored.Symbols() {
		if r.bySymbol[sym] == nil {
			r.bySymbol[sym] = make(map[string]struct{})
		}
		r.bySymbol[sym][alert.ID] = struct{}{}
	}
	return nil
}

// cloneAlert copies an alert deeply enough that neither side can mutate the
// other through shared slices or pointers.
func cloneAlert(a *models.Alert) models.Alert {
	out := *a
	out.Conditions = append([]models.Condition(nil), a.Conditions...)
	if a.LastTriggered != nil {
		t := *a.LastTriggered
		out.LastTriggered = &t
	}
	return out
}

// unindexLocked removes an alert id from both indexes, pruning buckets that
// become empty. Callers must hold the write lock.
func (r *Registry) unindexLocked(id string) {
	alert, ok := r.alerts[id]
	if !ok {
		return
	}
	if bucket, ok := r.byUser[alert.UserID]; ok {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(r.byUser, alert.UserID)
		}
	}
	for _, sym := range alert.Symbols() {
		if bucket, ok := r.bySymbol[sym]; ok {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(r.bySymbol, sym)
			}
		}
	}
}

// Remove deletes an alert and scrubs it from every index bucket.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unindexLocked(id)
	delete(r.alerts, id)
}

// Get returns a copy of the alert.
func (r *Registry) Get(id string) (models.Alert, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.alerts[id]; ok {
		return cloneAlert(a), true
	}
	return models.Alert{}, false
}

// ByUser returns copies of the user's alerts.
func (r *Registry) ByUser(userID string) []models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	out := make([]models.Alert, 0, len(ids))
	for id := range ids {
		if a, ok := r.alerts[id]; ok {
			out = append(out, cloneAlert(a))
		}
	}
	return out
}

// BySymbol returns copies of the alerts referencing the symbol.
func (r *Registry) BySymbol(symbol string) []models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.bySymbol[symbol]
	if !ok {
		return nil
	}
	out := make([]models.Alert, 0, len(ids))
	for id := range ids {
		if a, ok := r.alerts[id]; ok {
			out = append(out, cloneAlert(a))
		}
	}
	return out
}

// UsersFor returns the distinct users owning alerts that reference the symbol.
func (r *Registry) UsersFor(symbol string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.bySymbol[symbol]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	var users []string
	for id := range ids {
		a, ok := r.alerts[id]
		if !ok {
			continue
		}
		if _, dup := seen[a.UserID]; dup {
			continue
		}
		seen[a.UserID] = struct{}{}
		users = append(users, a.UserID)
	}
	return users
}

// All returns copies of every alert.
func (r *Registry) All() []models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, cloneAlert(a))
	}
	return out
}

// Count returns the number of registered alerts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.alerts)
}

// MarkTriggered records that the alert fired at the given time.
func (r *Registry) MarkTriggered(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	a.Triggered = true
	t := at
	a.LastTriggered = &t
	return nil
}

// Reset clears the triggered flag only. LastTriggered stays put: it anchors
// the cooldown window.
func (r *Registry) Reset(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	a.Triggered = false
	return nil
}

// SetActive flips the alert's active flag.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	a.Active = active
	return nil
}
