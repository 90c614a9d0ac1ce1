package alerts

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"quotewatch/internal/models"
)

// Property: a crossing fires only when the previous mid was strictly on the
// other side of the threshold, and never when current and previous coincide.
func TestProperty_CrossingNeedsMovement(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	// Whole-number prices keep the mid arithmetic exact, so the threshold
	// boundary itself gets exercised.
	properties.Property("crosses_above implies prev below and cur at-or-above", prop.ForAll(
		func(threshold, cur, prev int) bool {
			c := models.Condition{
				Type:     models.ConditionPrice,
				Operator: models.OperatorCrossesAbove,
				Value:    float64(threshold),
				Symbol:   "BTC/USD",
			}
			got := Evaluate(c, quoteAt(float64(cur)), quoteAt(float64(prev)))
			want := prev < threshold && cur >= threshold
			return got == want
		},
		gen.IntRange(1, 50), gen.IntRange(1, 50), gen.IntRange(1, 50),
	))

	properties.Property("stationary quote never crosses", prop.ForAll(
		func(threshold, mid float64) bool {
			q := quoteAt(mid)
			up := models.Condition{
				Type:     models.ConditionPrice,
				Operator: models.OperatorCrossesAbove,
				Value:    threshold,
				Symbol:   "BTC/USD",
			}
			down := up
			down.Operator = models.OperatorCrossesBelow
			return !Evaluate(up, q, q) && !Evaluate(down, q, q)
		},
		gen.Float64Range(1, 1000), gen.Float64Range(1, 1000),
	))

	properties.TestingRun(t)
}
