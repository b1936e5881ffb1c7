package nam

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

const (
	supportedVersion = "0.5"
	indent           = "    "
)

var metadataLevels = []string{"loudness", "output_level_dbu"}

// Scale multiplies the output head of a capture by linearFactor and shifts
// its loudness metadata by dbEquivalent. Weights outside the head keep their
// original text.
func Scale(content []byte, linearFactor, dbEquivalent float64) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.New("Failed to parse JSON.")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("Failed to parse JSON.")
	}

	doc, ok := raw.(map[string]any)
	if !ok || !valid(doc) {
		return nil, errors.New("Invalid .nam file.")
	}

	arch, ok := doc["architecture"].(string)
	if !ok {
		return nil, errors.New("Missing or invalid architecture field.")
	}
	config, ok := doc["config"].(map[string]any)
	if !ok {
		return nil, errors.New("Missing or invalid config field.")
	}
	weights, ok := doc["weights"].([]any)
	if !ok {
		return nil, errors.New("Missing or invalid weights field.")
	}
	for _, w := range weights {
		if _, ok := w.(json.Number); !ok {
			return nil, errors.New("Weights array contains non-numeric value(s).")
		}
	}

	start, end, err := HeadRange(arch, config, len(weights))
	if err != nil {
		return nil, err
	}

	for i := start; i < end; i++ {
		w, err := weights[i].(json.Number).Float64()
		if err != nil {
			return nil, errors.New("Weights array contains non-numeric value(s).")
		}
		weights[i] = number(w * linearFactor)
	}

	if meta, ok := doc["metadata"].(map[string]any); ok {
		for _, key := range metadataLevels {
			num, ok := meta[key].(json.Number)
			if !ok {
				continue
			}
			level, err := num.Float64()
			if err != nil {
				continue
			}
			meta[key] = number(level + dbEquivalent)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func valid(doc map[string]any) bool {
	version, ok := doc["version"].(string)
	if !ok || !strings.HasPrefix(version, supportedVersion) {
		return false
	}
	for _, key := range []string{"architecture", "config", "weights"} {
		if _, ok := doc[key]; !ok {
			return false
		}
	}
	return true
}

func number(f float64) json.Number {
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
}
