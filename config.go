package flowmesh

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowmesh/flowmesh/policy"
	"github.com/flowmesh/flowmesh/service/messaging"
)

// Config is a serialisable representation of the engine configuration.  It
// can be populated from YAML or JSON.  The zero-value is useful – all nested
// fields inherit their package defaults.
type Config struct {
	Runtime RuntimeConfig  `json:"runtime" yaml:"runtime"`
	Events  EventsConfig   `json:"events" yaml:"events"`
	Policy  *policy.Config `json:"policy,omitempty" yaml:"policy,omitempty"`
	Tracing TracingConfig  `json:"tracing" yaml:"tracing"`
}

// RuntimeConfig tunes top-level run behaviour.
type RuntimeConfig struct {
	// DefaultTimeout bounds each top-level run; zero means no bound.
	DefaultTimeout Duration `json:"defaultTimeout" yaml:"defaultTimeout"`
}

// Duration wraps time.Duration so configs can use "30s" style values.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts either a duration string ("30s") or an integer
// nanosecond count.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch actual := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(actual)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", actual, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(actual)
	case int64:
		*d = Duration(actual)
	default:
		return fmt.Errorf("invalid duration value: %v", raw)
	}
	return nil
}

// EventsConfig selects the lifecycle event transport.
type EventsConfig struct {
	// Vendor is the queue implementation name: "memory" or "fs".
	Vendor string `json:"vendor" yaml:"vendor"`

	// FSBaseURL roots filesystem queues; required when Vendor is "fs".
	FSBaseURL string `json:"fsBaseURL,omitempty" yaml:"fsBaseURL,omitempty"`
}

// TracingConfig enables OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	OutputFile  string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with the same defaults the
// constructors previously hard-coded.
func DefaultConfig() *Config {
	return &Config{
		Events: EventsConfig{Vendor: string(messaging.VendorMemory)},
	}
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch messaging.Vendor(c.Events.Vendor) {
	case messaging.VendorMemory, messaging.VendorFS, "":
	default:
		return fmt.Errorf("events.vendor must be %q or %q", messaging.VendorMemory, messaging.VendorFS)
	}
	if messaging.Vendor(c.Events.Vendor) == messaging.VendorFS && c.Events.FSBaseURL == "" {
		return fmt.Errorf("events.fsBaseURL is required with the fs vendor")
	}
	if c.Runtime.DefaultTimeout.Std() < 0 {
		return fmt.Errorf("runtime.defaultTimeout must be >= 0")
	}
	if c.Policy != nil {
		switch c.Policy.Mode {
		case "", policy.ModeAsk, policy.ModeAuto, policy.ModeDeny:
		default:
			return fmt.Errorf("policy.mode must be one of ask, auto, deny")
		}
	}
	return nil
}
