// Package timex provides a time.Duration that decodes from JSON either as a
// duration string ("10m", "1h30m") or as integer nanoseconds.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDuration = errors.New("invalid duration")

type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDuration, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDuration, string(b))
	}
}
