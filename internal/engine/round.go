package engine

import "math"

// reportPrecision is the decimal precision of every published estimate
const reportPrecision = 4

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func round4(v float64) float64 {
	return roundTo(v, reportPrecision)
}
