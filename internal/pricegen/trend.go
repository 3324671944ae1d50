package pricegen

import (
	"fmt"
	"math"
)

const (
	trendWindow  = 7
	neutralTrend = "0%"
	arrowDown    = "↓"
	arrowUp      = "↑"
)

// Trend compares the latest price with the one trendWindow entries back (or the
// oldest available) and formats the change, e.g. "↓ -5%" or "↑ +12%".
// The arrow follows the unrounded change, so "↑ +0%" marks a sub-percent rise.
// A non-positive reference price yields the neutral trend.
func Trend(prices []float64) string {
	if len(prices) < 2 {
		return neutralTrend
	}

	recent := prices[len(prices)-1]
	reference := prices[max(0, len(prices)-trendWindow)]
	if reference <= 0 {
		return neutralTrend
	}

	change := (recent - reference) / reference * 100
	rounded := math.Round(math.Abs(change))
	switch {
	case change < 0:
		return fmt.Sprintf("%s -%.0f%%", arrowDown, rounded)
	case change > 0:
		return fmt.Sprintf("%s +%.0f%%", arrowUp, rounded)
	default:
		return "+0%"
	}
}
