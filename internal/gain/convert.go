package gain

import (
	"math"

	"github.com/mrgeneko/namknob/internal/domain"
)

func DecibelToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func LinearToDecibel(linear float64) float64 {
	return 20 * math.Log10(linear)
}

// Factors returns both representations of value regardless of its unit.
func Factors(value float64, unit domain.GainUnit) (linearFactor, dbEquivalent float64) {
	if unit == domain.UnitDecibel {
		return DecibelToLinear(value), value
	}
	return value, LinearToDecibel(value)
}
