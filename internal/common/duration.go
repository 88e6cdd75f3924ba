package common

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that decodes from TOML strings such as "5s" or "1m30s"
type Duration struct {
	time.Duration
}

// Dur wraps a time.Duration
func Dur(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Durations unwraps a list of configured durations
func Durations(list []Duration) []time.Duration {
	out := make([]time.Duration, len(list))
	for i, d := range list {
		out[i] = d.Duration
	}
	return out
}
