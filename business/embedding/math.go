package embedding

import "math"

// Unit rows are stored as float32, so rows that cancel leave a residue of
// about 1e-8 per row. Norms below zeroNorm per summed row count as zero.
const zeroNorm = 1e-6

// dot of two equal-length vectors; float64 accumulation.
func dot(a []float32, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * b[i]
	}
	return sum
}

// v := v + x
func addInto(v []float64, x []float32) {
	for i := range x {
		v[i] += float64(x[i])
	}
}

// normalize v in place; returns false when the norm is below tol.
func normalize(v []float64, tol float64) bool {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	n := math.Sqrt(sum)
	if n == 0 || n < tol {
		return false
	}
	for i := range v {
		v[i] /= n
	}
	return true
}

// priceScore maps the log-price distance to (0, 1]; 1 means identical price.
// A non-positive candidate or reference price scores 0.
func priceScore(price, refPrice, decay float64) float64 {
	if price <= 0 || refPrice <= 0 {
		return 0
	}
	return math.Exp(-decay * math.Abs(math.Log(price)-math.Log(refPrice)))
}
