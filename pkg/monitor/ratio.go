package monitor

// Epsilon guards the ratio division when the danger threshold is
// configured to zero or near-zero.
const Epsilon = 0.001

// Ratio maps a density onto [0, 1] relative to the danger threshold, for
// gauge-style visualization. Status classification itself comes verbatim
// from the detection backend and is never recomputed here.
func Ratio(density, danger float64) float64 {
	if danger < Epsilon {
		danger = Epsilon
	}
	r := density / danger
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
