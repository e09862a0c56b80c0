package carbon

import (
	"math"
	"strings"
)

// Per-mode CO2 factors in kg/km used for savings, car as the baseline.
var savingsFactors = map[string]float64{
	"car":   0.192,
	"bus":   0.105,
	"train": 0.041,
	"bike":  0.0,
	"walk":  0.0,
}

// Provider mode names mapped to the canonical set.
var modeAliases = map[string]string{
	"driving":   "car",
	"transit":   "bus",
	"bicycling": "bike",
	"walking":   "walk",
}

// Emissions returns the CO2 emitted in kg for a trip of the given distance.
// Unrecognized modes count as zero-emission rather than failing.
func Emissions(distanceKm float64, mode string) float64 {
	switch strings.ToLower(mode) {
	case "driving", "car":
		return round1(distanceKm * 0.2)
	case "transit", "bus", "train":
		return round1(distanceKm * 0.1)
	default:
		return 0.0
	}
}

// Savings returns the CO2 saved in kg relative to driving the same distance.
// Unrecognized modes fall back to the car baseline and earn no credit.
func Savings(mode string, distanceKm float64) float64 {
	m := strings.ToLower(mode)
	if canonical, ok := modeAliases[m]; ok {
		m = canonical
	}
	factor, ok := savingsFactors[m]
	if !ok {
		factor = savingsFactors["car"]
	}
	saved := savingsFactors["car"]*distanceKm - factor*distanceKm
	return round3(math.Max(0, saved))
}

// RecommendMode suggests a travel mode for the given distance.
func RecommendMode(distanceKm float64) string {
	switch {
	case distanceKm < 1:
		return "walk"
	case distanceKm < 5:
		return "bike"
	case distanceKm < 30:
		return "bus"
	default:
		return "train"
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
