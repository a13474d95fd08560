// Package risk converts a fixed risk budget into share quantity.
package risk

import "math"

// SizeQty returns floor(budget / riskPerShare), clamped to >= 0.
// Zero is the abstain signal: a plan sized to zero shares must become
// ABSTAINED, never ARMED. Never divides by zero.
func SizeQty(budget, riskPerShare float64) int64 {
	if riskPerShare <= 0 || budget <= 0 {
		return 0
	}
	if math.IsNaN(riskPerShare) || math.IsInf(riskPerShare, 0) ||
		math.IsNaN(budget) || math.IsInf(budget, 0) {
		return 0
	}
	qty := math.Floor(budget / riskPerShare)
	if qty < 0 {
		return 0
	}
	return int64(qty)
}

// SplitBudget divides one session risk budget evenly across symbols.
// The only portfolio-level allocation the engine does.
func SplitBudget(budget float64, symbols int) float64 {
	if symbols <= 0 {
		return 0
	}
	return budget / float64(symbols)
}
