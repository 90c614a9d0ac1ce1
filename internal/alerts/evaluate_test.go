package alerts

import (
	"testing"

	"quotewatch/internal/models"
)

// quoteAt builds a quote whose mid-price is exactly mid.
func quoteAt(mid float64) models.Quote {
	return models.Quote{Symbol: "BTC/USD", BidPrice: mid - 0.5, AskPrice: mid + 0.5}
}

func quoteWithVolume(mid, vol float64) models.Quote {
	q := quoteAt(mid)
	q.Volume = &vol
	return q
}

func TestEvaluatePrice(t *testing.T) {
	cases := []struct {
		name string
		cond models.Condition
		cur  float64
		prev float64
		want bool
	}{
		{"above matches", cond(models.ConditionPrice, models.OperatorAbove, 100), 101, 101, true},
		{"above at boundary", cond(models.ConditionPrice, models.OperatorAbove, 100), 100, 100, false},
		{"below matches", cond(models.ConditionPrice, models.OperatorBelow, 100), 99, 99, true},
		{"crosses above", cond(models.ConditionPrice, models.OperatorCrossesAbove, 100), 101, 99, true},
		{"crosses above too high", cond(models.ConditionPrice, models.OperatorCrossesAbove, 105), 101, 99, false},
		{"crosses above already above", cond(models.ConditionPrice, models.OperatorCrossesAbove, 100), 102, 101, false},
		{"crosses below", cond(models.ConditionPrice, models.OperatorCrossesBelow, 100), 99, 101, true},
		{"changes by", cond(models.ConditionPrice, models.OperatorChangesBy, 2), 103, 100, true},
		{"changes by too small", cond(models.ConditionPrice, models.OperatorChangesBy, 5), 103, 100, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.cond, quoteAt(tc.cur), quoteAt(tc.prev)); got != tc.want {
				t.Errorf("Evaluate(%+v, cur=%v, prev=%v) = %v, want %v",
					tc.cond, tc.cur, tc.prev, got, tc.want)
			}
		})
	}
}

func cond(ct models.ConditionType, op models.ConditionOperator, value float64) models.Condition {
	return models.Condition{Type: ct, Operator: op, Value: value, Symbol: "BTC/USD"}
}

func TestCrossingUnsatisfiableOnFirstObservation(t *testing.T) {
	// With no prior quote the caller passes the current one as previous,
	// so prev == cur and no crossing can be observed.
	c := cond(models.ConditionPrice, models.OperatorCrossesAbove, 100)
	q := quoteAt(101)
	if Evaluate(c, q, q) {
		t.Error("crossing must not match when previous defaults to current")
	}
}

func TestEvaluatePercentage(t *testing.T) {
	cases := []struct {
		name string
		op   models.ConditionOperator
		val  float64
		cur  float64
		prev float64
		want bool
	}{
		{"above", models.OperatorAbove, 1, 102, 100, true},
		{"above not enough", models.OperatorAbove, 3, 102, 100, false},
		{"below", models.OperatorBelow, -1, 98, 100, true},
		{"changes by abs down", models.OperatorChangesBy, 2, 98, 100, true},
		{"changes by abs up", models.OperatorChangesBy, 2, 102, 100, true},
		{"changes by too small", models.OperatorChangesBy, 5, 102, 100, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := cond(models.ConditionPercentage, tc.op, tc.val)
			if got := Evaluate(c, quoteAt(tc.cur), quoteAt(tc.prev)); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPercentageZeroPreviousFails(t *testing.T) {
	c := cond(models.ConditionPercentage, models.OperatorAbove, 1)
	if Evaluate(c, quoteAt(100), models.Quote{}) {
		t.Error("zero previous mid must not match")
	}
}

func TestEvaluateVolume(t *testing.T) {
	above := cond(models.ConditionVolume, models.OperatorAbove, 1000)

	if Evaluate(above, quoteAt(100), quoteAt(100)) {
		t.Error("absent volume must fail closed")
	}
	if !Evaluate(above, quoteWithVolume(100, 1500), quoteAt(100)) {
		t.Error("volume above threshold must match")
	}
	below := cond(models.ConditionVolume, models.OperatorBelow, 1000)
	if !Evaluate(below, quoteWithVolume(100, 500), quoteAt(100)) {
		t.Error("volume below threshold must match")
	}
}

func TestTechnicalAlwaysFalse(t *testing.T) {
	c := models.Condition{
		Type:      models.ConditionTechnical,
		Operator:  models.OperatorAbove,
		Value:     1,
		Symbol:    "BTC/USD",
		Indicator: "rsi",
		Period:    14,
	}
	if Evaluate(c, quoteWithVolume(100, 100), quoteAt(50)) {
		t.Error("technical conditions are an unimplemented extension point and never match")
	}
}
