package models

import "time"

// ConditionType classifies what a condition inspects.
type ConditionType string

const (
	ConditionPrice      ConditionType = "price"
	ConditionPercentage ConditionType = "percentage"
	ConditionVolume     ConditionType = "volume"
	ConditionTechnical  ConditionType = "technical"
)

// ConditionOperator is the comparison an alert condition applies.
type ConditionOperator string

const (
	// OperatorAbove matches when the observed value is above the target.
	OperatorAbove ConditionOperator = "above"
	// OperatorBelow matches when the observed value is below the target.
	OperatorBelow ConditionOperator = "below"
	// OperatorCrossesAbove matches when the value moves from below to at-or-above the target.
	OperatorCrossesAbove ConditionOperator = "crosses_above"
	// OperatorCrossesBelow matches when the value moves from above to at-or-below the target.
	OperatorCrossesBelow ConditionOperator = "crosses_below"
	// OperatorChangesBy matches when the absolute move since the previous
	// observation reaches the target.
	OperatorChangesBy ConditionOperator = "changes_by"
)

// Condition is a single alert predicate on one symbol.
// Indicator and Period only apply to the technical type.
type Condition struct {
	Type      ConditionType
	Operator  ConditionOperator
	Value     float64
	Symbol    string
	Indicator string
	Period    int
}

// Alert is a user-defined rule set. Conditions are AND-combined: every
// condition must hold in the same evaluation pass for the alert to fire.
type Alert struct {
	ID            string
	UserID        string
	Name          string
	Conditions    []Condition
	Active        bool
	Triggered     bool
	LastTriggered *time.Time
	Cooldown      time.Duration
	CreatedAt     time.Time
}

// InCooldown reports whether the alert fired recently enough that it must
// not fire again yet.
func (a *Alert) InCooldown(now time.Time) bool {
	if a.Cooldown <= 0 || a.LastTriggered == nil {
		return false
	}
	return now.Sub(*a.LastTriggered) < a.Cooldown
}

// Symbols returns the distinct symbols referenced by the alert's conditions.
func (a *Alert) Symbols() []string {
	seen := make(map[string]struct{}, len(a.Conditions))
	var symbols []string
	for _, c := range a.Conditions {
		if _, ok := seen[c.Symbol]; ok {
			continue
		}
		seen[c.Symbol] = struct{}{}
		symbols = append(symbols, c.Symbol)
	}
	return symbols
}

// UpdateBatch is one user's pending snapshot between processor ticks.
// At most one batch per user is held; a newer batch replaces the older one.
type UpdateBatch struct {
	UserID    string
	Quotes    map[string]Quote
	Positions []Position
}
