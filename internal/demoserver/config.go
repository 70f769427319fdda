package demoserver

import "time"

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// Duration is how long the simulated test runs before the result is
	// shown.
	Duration time.Duration

	// Value and Unit are the result shown once the test completes.
	Value string
	Unit  string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:     9999,
		Duration: 5 * time.Second,
		Value:    "120.5",
		Unit:     "Mbps",
	}
}
