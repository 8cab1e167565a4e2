package assignment

import "math"

// Percentage returns score as a percentage of total, rounded to two decimals.
func Percentage(score float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(score/float64(total)*10000) / 100
}

// LetterGrade maps a percentage to A (90+), B (80+), C (70+), D (60+) or F.
func LetterGrade(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}
