package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// YesNo is a boolean written as "yes"/"no" in config files and flags.
// "true"/"false" are accepted too.
type YesNo bool

// ParseYesNo parses yes/no/true/false (case-insensitive).
func ParseYesNo(s string) (YesNo, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected yes or no, got %q", s)
	}
}

// String returns "yes" or "no".
func (y YesNo) String() string {
	if y {
		return "yes"
	}
	return "no"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (y *YesNo) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected yes or no", value.Line)
	}
	parsed, err := ParseYesNo(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*y = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (y YesNo) MarshalYAML() (interface{}, error) {
	return y.String(), nil
}

// DebounceDuration parses the debounce setting. Empty means 500ms.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid watch.debounce %q: %w", w.Debounce, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("watch.debounce must be positive, got %s", d)
	}
	return d, nil
}

// Set implements pflag.Value so yes/no switches can be bound to flags.
func (y *YesNo) Set(s string) error {
	parsed, err := ParseYesNo(s)
	if err != nil {
		return err
	}
	*y = parsed
	return nil
}

// Type implements pflag.Value.
func (y *YesNo) Type() string {
	return "yes|no"
}
