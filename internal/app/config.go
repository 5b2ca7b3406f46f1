package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ThingsPath string // directory with one subdirectory per binding

	LogFormat       string
	LogLevel        string
	Workers         int
	HealthcheckPort int

	// Optional socket.io gateway for registry change events.
	EventsURL          string
	EventsNamespace    string
	EventsSkipTLSCheck bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ThingsPath == "" {
		return nil, errors.New("ThingsPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
