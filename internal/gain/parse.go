package gain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mrgeneko/namknob/internal/domain"
)

// Parse splits raw on commas and converts every non-blank token to a float.
// Blank input yields an empty slice; emptiness is the validator's concern.
func Parse(raw string) ([]float64, error) {
	var values []float64
	var bad []string

	for _, part := range strings.Split(raw, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}

		v, err := strconv.ParseFloat(token, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			bad = append(bad, token)
			continue
		}
		values = append(values, v)
	}

	if len(bad) > 0 {
		return nil, domain.ParseError.
			New("Gain list contains non-numeric value(s).").
			WithProperty(domain.PropertyTokens, bad)
	}

	return values, nil
}
