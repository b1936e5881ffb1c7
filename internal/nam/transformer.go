package nam

import (
	"context"
	"strings"
	"unicode"

	"github.com/mrgeneko/namknob/internal/domain"
)

const errorPrefix = "Error:"

// Transformer applies Scale at the transform boundary.
type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

func (t *Transformer) Transform(ctx context.Context, content string, linearFactor, dbEquivalent float64) domain.TransformResult {
	out, err := Scale([]byte(content), linearFactor, dbEquivalent)
	if err != nil {
		return domain.TransformFailed(err.Error())
	}
	return domain.TransformSucceeded(string(out))
}

// Process is the string form of the transform: it returns the new content,
// or "Error: " followed by a message.
func Process(content string, linearFactor, dbEquivalent float64) string {
	out, err := Scale([]byte(content), linearFactor, dbEquivalent)
	if err != nil {
		return errorPrefix + " " + err.Error()
	}
	return string(out)
}

// LegacyFunc is a transform that signals failure in-band with an "Error:" prefix.
type LegacyFunc func(content string, linearFactor, dbEquivalent float64) string

// LegacyAdapter turns the in-band error convention into a tagged result.
func LegacyAdapter(fn LegacyFunc) domain.Transformer {
	return domain.TransformFunc(func(_ context.Context, content string, linearFactor, dbEquivalent float64) domain.TransformResult {
		out := fn(content, linearFactor, dbEquivalent)
		if strings.HasPrefix(out, errorPrefix) {
			msg := strings.TrimLeftFunc(strings.TrimPrefix(out, errorPrefix), unicode.IsSpace)
			return domain.TransformFailed(msg)
		}
		return domain.TransformSucceeded(out)
	})
}
