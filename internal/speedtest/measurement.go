package speedtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/speedcheck/internal/logging"
	"github.com/raysh454/speedcheck/internal/utils"
)

// Measurement is one completed speed reading.
type Measurement struct {
	ID        string
	Taken     time.Time
	Timestamp string // Taken as FormatISO8601
	Value     string
	Unit      string
	Elapsed   time.Duration
}

// CSV returns the machine readable result line, without newline:
//
//	speed,2024-03-09T14:07:03+01:00,120.5,Mbps,12.3
func (m *Measurement) CSV() string {
	return fmt.Sprintf("speed,%s,%s,%s,%.1f", m.Timestamp, m.Value, m.Unit, m.Elapsed.Seconds())
}

func (m *Measurement) String() string {
	return fmt.Sprintf("%s %s %s %.1f seconds", m.Timestamp, m.Value, m.Unit, m.Elapsed.Seconds())
}

// Measurer waits for a loaded speed-test page and reads its result.
type Measurer struct {
	cfg    Config
	poller *Poller
	logger logging.Logger
	clock  Clock
	newID  func() string
}

// Option customizes a Measurer.
type Option func(*Measurer)

// WithClock replaces the system clock, for tests.
func WithClock(c Clock) Option {
	return func(m *Measurer) { m.clock = c }
}

func NewMeasurer(cfg Config, logger logging.Logger, opts ...Option) *Measurer {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Measurer{
		cfg:    cfg,
		logger: logger,
		clock:  SystemClock{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.poller = NewPoller(cfg, logger, m.clock)
	return m
}

// Measure blocks until page reports a result and returns it.
func (m *Measurer) Measure(ctx context.Context, page Page) (*Measurement, error) {
	m.logger.Info("waiting...")
	elapsed, err := m.poller.WaitReady(ctx, page)
	if err != nil {
		return nil, err
	}
	m.logger.Info(fmt.Sprintf("capture complete after %.1f seconds", elapsed.Seconds()))

	value, err := page.ElementText(ctx, m.cfg.ValueID)
	if err != nil {
		return nil, err
	}
	unit, err := page.ElementText(ctx, m.cfg.UnitID)
	if err != nil {
		return nil, err
	}

	taken := m.clock.Now()
	return &Measurement{
		ID:        m.newID(),
		Taken:     taken,
		Timestamp: utils.FormatISO8601(taken),
		Value:     value,
		Unit:      unit,
		Elapsed:   elapsed,
	}, nil
}
