package trend

// slope fits a least-squares line over ys at unit-spaced x values and
// returns its gradient. Fewer than two points give a zero slope.
func slope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}
