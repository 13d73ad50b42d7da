package metering

import (
	"github.com/shopspring/decimal"
)

// anomalyThreshold is the relative deviation from the recent mean above
// which a reading is flagged (50%)
var anomalyThreshold = decimal.NewFromFloat(0.5)

// minHistoryForAnomaly is the number of prior readings required before
// a deviation check is meaningful
const minHistoryForAnomaly = 3

// DetectAnomaly compares a new reading's consumption against the mean
// of the most recent readings. It returns true when at least three
// prior readings exist and the new value deviates from their mean by
// more than 50% in either direction.
func DetectAnomaly(history []*Consumption, kwh decimal.Decimal) bool {
	if len(history) < minHistoryForAnomaly {
		return false
	}

	sum := decimal.Zero
	for _, c := range history[:minHistoryForAnomaly] {
		sum = sum.Add(c.KwhConsumed)
	}
	mean := sum.Div(decimal.NewFromInt(minHistoryForAnomaly))
	if mean.IsZero() {
		// Any non-zero reading after three zero readings is anomalous
		return !kwh.IsZero()
	}

	deviation := kwh.Sub(mean).Abs().Div(mean)
	return deviation.GreaterThan(anomalyThreshold)
}
