// Package runtime supplies the owner-facing glue that spec.md leaves
// external to the core: loading `fwctl.yaml`, running the single
// multi-producer/single-consumer event loop described in spec.md §5,
// and gating streaming-locked writes. None of this is itself a
// parameter codec or transaction primitive; it wires the components in
// pkg/{transaction,avc,cache,notify,dice,motu,tascam} together the way
// an ALSA hwdep driver or a standalone daemon would.
package runtime

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// searchLocations mirrors the search-list convention used by the
// retrieved corpus's device-control repos for locating a declarative
// config file without a hardcoded absolute path.
var searchLocations = []string{
	"fwctl.yaml",
	"./config/fwctl.yaml",
	"/etc/fwctl/fwctl.yaml",
}

// Config is the owner-facing settings fwctl.yaml declares: which node
// to open, the default transaction timeout, and the streaming-lock
// debounce interval (spec.md §4.G names the 500ms default; this field
// lets an owner override it per deployment).
type Config struct {
	GUID       string `yaml:"guid"`
	TimeoutMS  int    `yaml:"timeout_ms"`
	DebounceMS int    `yaml:"debounce_ms"`
	LogLevel   string `yaml:"log_level"`
}

// DefaultTimeout returns the configured transaction timeout, falling
// back to 50ms (the midpoint of spec.md §5's 20-100ms range) when
// unset.
func (c Config) DefaultTimeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// DebounceInterval returns the configured streaming-lock debounce,
// falling back to notify.StreamingLockDebounce's 500ms when unset.
func (c Config) DebounceInterval() time.Duration {
	if c.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// LoadConfig reads fwctl.yaml from the first of searchLocations that
// exists. It is not an error for none to exist; LoadConfig then
// returns a zero-value Config so callers can fall back to defaults.
func LoadConfig() (Config, error) {
	var data []byte
	var found string
	for _, location := range searchLocations {
		b, err := os.ReadFile(location)
		if err != nil {
			continue
		}
		data, found = b, location
		break
	}
	if found == "" {
		return Config{}, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("runtime: parse %s: %w", found, err)
	}
	return cfg, nil
}
