package gain

import (
	"fmt"
	"math"

	"github.com/mrgeneko/namknob/internal/domain"
)

const MaxDecibel = 9.0

// MaxLinear is the linear equivalent of MaxDecibel, 10^(9/20).
var MaxLinear = math.Pow(10, MaxDecibel/20)

// Validate returns the first violation in gains for unit, or nil.
func Validate(gains []float64, unit domain.GainUnit) error {
	if len(gains) == 0 {
		return domain.ValidationError.New("Enter one or more gains (comma-separated).")
	}

	for _, g := range gains {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return invalid(g, "Gain list contains non-finite value(s).")
		}
	}

	if unit == domain.UnitDecibel {
		for _, g := range gains {
			if g > MaxDecibel {
				return invalid(g, fmt.Sprintf("Max gain is +%g dB.", MaxDecibel))
			}
		}
		return nil
	}

	for _, g := range gains {
		if g <= 0 {
			return invalid(g, "Linear gains must be > 0.")
		}
	}
	for _, g := range gains {
		if g > MaxLinear {
			return invalid(g, fmt.Sprintf("Max linear gain is %.5f (equivalent to +%g dB).", MaxLinear, MaxDecibel))
		}
	}

	return nil
}

func invalid(value float64, message string) error {
	return domain.ValidationError.New("%s", message).WithProperty(domain.PropertyValue, value)
}
