package gain

import (
	"strconv"
	"strings"

	"github.com/mrgeneko/namknob/internal/domain"
)

const Extension = ".nam"

// Format renders a gain for use in a file name: seven decimals, trailing
// zeros trimmed to at least one digit, '.' replaced by '_', and a leading
// '+' for non-negative decibel values.
func Format(value float64, unit domain.GainUnit) string {
	if value == 0 {
		value = 0 // drop the sign of -0
	}

	s := strconv.FormatFloat(value, 'f', 7, 64)
	if dot := strings.IndexByte(s, '.'); dot != -1 {
		s = strings.TrimRight(s, "0")
		if len(s) == dot+1 {
			s += "0"
		}
	}
	s = strings.Replace(s, ".", "_", 1)

	if unit == domain.UnitDecibel && value >= 0 {
		s = "+" + s
	}
	return s
}

func BaseName(fileName string) string {
	if len(fileName) >= len(Extension) && strings.EqualFold(fileName[len(fileName)-len(Extension):], Extension) {
		return fileName[:len(fileName)-len(Extension)]
	}
	return fileName
}

func OutputName(fileName string, value float64, unit domain.GainUnit) string {
	return BaseName(fileName) + "_" + Format(value, unit) + unit.Suffix() + Extension
}
