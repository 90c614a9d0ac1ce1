package alerts

import (
	"math"

	"quotewatch/internal/models"
)

// Evaluate reports whether a single condition holds given the current quote
// and the previous stored quote for the condition's symbol. Callers with no
// previous quote pass the current one, which makes crossing conditions
// unsatisfiable on the very first observation.
func Evaluate(cond models.Condition, cur, prev models.Quote) bool {
	switch cond.Type {
	case models.ConditionPrice:
		return evaluatePrice(cond, cur.Mid(), prev.Mid())
	case models.ConditionPercentage:
		return evaluatePercentage(cond, cur.Mid(), prev.Mid())
	case models.ConditionVolume:
		return evaluateVolume(cond, cur)
	case models.ConditionTechnical:
		// Extension point: technical conditions never match yet.
		return false
	default:
		return false
	}
}

func evaluatePrice(cond models.Condition, mid, prevMid float64) bool {
	switch cond.Operator {
	case models.OperatorAbove:
		return mid > cond.Value
	case models.OperatorBelow:
		return mid < cond.Value
	case models.OperatorCrossesAbove:
		return prevMid < cond.Value && mid >= cond.Value
	case models.OperatorCrossesBelow:
		return prevMid > cond.Value && mid <= cond.Value
	case models.OperatorChangesBy:
		return math.Abs(mid-prevMid) >= cond.Value
	default:
		return false
	}
}

func evaluatePercentage(cond models.Condition, mid, prevMid float64) bool {
	if prevMid == 0 {
		return false
	}
	change := (mid - prevMid) / prevMid * 100

	switch cond.Operator {
	case models.OperatorAbove:
		return change > cond.Value
	case models.OperatorBelow:
		return change < cond.Value
	case models.OperatorChangesBy:
		return math.Abs(change) >= cond.Value
	default:
		return false
	}
}

// evaluateVolume fails closed when the quote carries no volume.
func evaluateVolume(cond models.Condition, cur models.Quote) bool {
	if cur.Volume == nil {
		return false
	}
	switch cond.Operator {
	case models.OperatorAbove:
		return *cur.Volume > cond.Value
	case models.OperatorBelow:
		return *cur.Volume < cond.Value
	default:
		return false
	}
}
