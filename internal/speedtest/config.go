// Package speedtest waits for a speed-test page to finish and reads its
// result.
package speedtest

import (
	"errors"
	"fmt"
	"time"
)

// Element ids of the fast.com result page.
const (
	ReadyElementID = "show-more-details-link"
	ValueElementID = "speed-value"
	UnitElementID  = "speed-units"
)

// Config controls polling and names the elements read.
type Config struct {
	// Interval is slept before every readiness check.
	Interval time.Duration

	// MaxWait bounds the polling loop. Zero waits forever.
	MaxWait time.Duration

	ReadyID string
	ValueID string
	UnitID  string
}

// DefaultConfig polls every second, without a bound, for the fast.com ids.
func DefaultConfig() Config {
	return Config{
		Interval: time.Second,
		ReadyID:  ReadyElementID,
		ValueID:  ValueElementID,
		UnitID:   UnitElementID,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.Interval))
	}
	if c.MaxWait < 0 {
		errs = append(errs, fmt.Errorf("max wait must not be negative, got %s", c.MaxWait))
	}
	if c.ReadyID == "" || c.ValueID == "" || c.UnitID == "" {
		errs = append(errs, errors.New("element ids must not be empty"))
	}
	return errors.Join(errs...)
}
