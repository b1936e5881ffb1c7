package nam

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	ArchLSTM    = "LSTM"
	ArchWaveNet = "WaveNet"
	ArchConvNet = "ConvNet"
	ArchLinear  = "Linear"

	waveNetHeadSize = 10
	convNetHeadSize = 5
)

// HeadRange returns the half-open range of weights that make up the output
// head of the given architecture.
func HeadRange(arch string, config map[string]any, n int) (int, int, error) {
	if n == 0 {
		return 0, 0, errors.New("Weights array is empty.")
	}

	switch arch {
	case ArchLSTM:
		hidden, ok := integer(config["hidden_size"])
		if !ok {
			return 0, 0, errors.New("Missing or invalid config.hidden_size for LSTM.")
		}
		if hidden <= 0 {
			return 0, 0, errors.New("config.hidden_size must be > 0 for LSTM.")
		}
		if hidden > int64(n) {
			return 0, 0, errors.New("config.hidden_size is larger than weights array.")
		}
		return n - int(hidden), n, nil
	case ArchWaveNet:
		if n < waveNetHeadSize {
			return 0, 0, errors.New("Weights array too small for WaveNet placeholder logic.")
		}
		return n - waveNetHeadSize, n, nil
	case ArchConvNet:
		if n < convNetHeadSize {
			return 0, 0, errors.New("Weights array too small for ConvNet placeholder logic.")
		}
		return n - convNetHeadSize, n, nil
	case ArchLinear:
		return 0, n, nil
	}

	return 0, 0, fmt.Errorf("Unsupported architecture: %s", arch)
}

// integer accepts only JSON integer literals, not 16.0 or 1e1.
func integer(v any) (int64, bool) {
	num, ok := v.(json.Number)
	if !ok || strings.ContainsAny(num.String(), ".eE") {
		return 0, false
	}
	i, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}
