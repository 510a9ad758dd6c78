package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v half away from zero to two decimal places.
// NaN and infinities collapse to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WeightedSum returns round2(sum(values[i]*weights[i])) computed in exact decimal arithmetic,
// so equal inputs on either side of a subtraction yield exact deltas.
func WeightedSum(values, weights []float64) float64 {
	sum := decimal.Zero
	for i := range values {
		if i >= len(weights) {
			break
		}
		v, w := values[i], weights[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(w)))
	}
	return sum.Round(2).InexactFloat64()
}

// Sum returns round2 of the sum of values computed in exact decimal arithmetic.
// NaN and infinities are skipped.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
