// Package extract recovers a JSON array of records from free-text model output.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-harvest/internal/model"
)

// Mode selects how tolerant extraction is of text around the JSON.
type Mode string

const (
	// ModeLenient parses the span from the first '[' to the last ']'.
	ModeLenient Mode = "lenient"
	// ModeStrict parses the whole output and nothing else.
	ModeStrict Mode = "strict"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLenient, "":
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", eris.Errorf("extract: unknown mode %q", s)
	}
}

var (
	// ErrNoArray means the output has no usable '[' ... ']' span.
	ErrNoArray = eris.New("no JSON array found")
	// ErrNotArray means the output parsed as JSON but not as an array.
	ErrNotArray = eris.New("JSON value is not an array")
)

// DecodeError reports model output that could not be recovered as JSON.
// Raw holds the full output for diagnosis.
type DecodeError struct {
	Mode Mode
	Raw  string
	Err  error
}

func (e *DecodeError) Error() string {
	return "extract: " + string(e.Mode) + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Array recovers the JSON array contained in raw. On failure it returns an
// empty, non-nil slice together with a *DecodeError.
func Array(raw string, mode Mode) ([]json.RawMessage, error) {
	mode = effectiveMode(mode)

	candidate := raw
	if mode == ModeLenient {
		start := strings.Index(raw, "[")
		end := strings.LastIndex(raw, "]")
		if start < 0 || end < start {
			return []json.RawMessage{}, &DecodeError{Mode: mode, Raw: raw, Err: ErrNoArray}
		}
		candidate = raw[start : end+1]
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &items); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			err = ErrNotArray
		}
		return []json.RawMessage{}, &DecodeError{Mode: mode, Raw: raw, Err: err}
	}
	// A bare null decodes into a nil slice without error.
	if items == nil {
		return []json.RawMessage{}, &DecodeError{Mode: mode, Raw: raw, Err: ErrNotArray}
	}
	return items, nil
}

// Records recovers the array in raw and decodes its elements as
// Researchers. Decoding keeps every element, including fields of an
// unexpected type and elements that are not objects, so only an
// unrecoverable array fails.
func Records(raw string, mode Mode) ([]model.Researcher, error) {
	items, err := Array(raw, mode)
	if err != nil {
		return []model.Researcher{}, err
	}

	records := make([]model.Researcher, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &records[i]); err != nil {
			return []model.Researcher{}, &DecodeError{
				Mode: effectiveMode(mode),
				Raw:  raw,
				Err:  eris.Wrapf(err, "decode record %d", i),
			}
		}
	}
	return records, nil
}

// Extractor applies one Mode to every page of a run.
type Extractor struct {
	Mode Mode
}

// Extract decodes the researcher records contained in raw model output.
func (e Extractor) Extract(raw string) ([]model.Researcher, error) {
	return Records(raw, e.Mode)
}

func effectiveMode(m Mode) Mode {
	if m == ModeStrict {
		return ModeStrict
	}
	return ModeLenient
}
