package entities

import "math"

// AllocationEpsilon absorbs per-platform rounding when comparing allocation sums.
const AllocationEpsilon = 0.01

// AllocateBudget splits total across platforms proportionally to distribution.
// Platforms missing from distribution receive an equal share (100/len).
// Percentages that do not sum to 100 are not normalized.
func AllocateBudget(platforms []Platform, distribution map[Platform]float64, total *float64) map[Platform]float64 {
	allocation := make(map[Platform]float64, len(platforms))
	if total == nil || len(platforms) == 0 {
		return allocation
	}
	equalShare := 100.0 / float64(len(platforms))
	for _, platform := range platforms {
		percent, ok := distribution[platform]
		if !ok {
			percent = equalShare
		}
		allocation[platform] = RoundCurrency(percent / 100 * *total)
	}
	return allocation
}

func SumAllocation(allocation map[Platform]float64) float64 {
	sum := 0.0
	for _, amount := range allocation {
		sum += amount
	}
	return RoundCurrency(sum)
}

func RoundCurrency(value float64) float64 {
	return roundTo(value, 2)
}

func RoundRatio(value float64) float64 {
	return roundTo(value, 4)
}

func roundTo(value float64, places int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// SafeDivide returns 0 instead of NaN or Inf for a zero denominator.
func SafeDivide(numerator float64, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}
