// Package timex provides a JSON-friendly wrapper around time.Duration.
//
// Standard time.Duration does not implement json.Unmarshaler, so config files
// would have to use raw nanosecond integers. timex.Duration accepts either a
// duration string ("90s", "2m") or an integer nanosecond count.
package timex

import (
	"encoding/json"
	"errors"
	"time"
)

// Duration wraps time.Duration for use in JSON config DTOs.
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts either a string parsed by time.ParseDuration or a
// number interpreted as nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// MarshalJSON emits the duration as a string ("3s"), the form users are
// expected to write in config files.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
