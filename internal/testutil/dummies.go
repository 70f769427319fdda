// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a browser or network.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/speedcheck/internal/logging"
	"github.com/raysh454/speedcheck/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns the number of Error calls so far.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── Clock ─────────────────────────────────────────────────────────────

// FakeClock advances only when Sleep is called.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	Sleeps []time.Duration

	// OnSleep runs after the n-th sleep (1-based) has advanced the clock.
	OnSleep func(n int)
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.Sleeps = append(c.Sleeps, d)
	c.now = c.now.Add(d)
	n := len(c.Sleeps)
	hook := c.OnSleep
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

// SleepCount returns how many times Sleep advanced the clock.
func (c *FakeClock) SleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sleeps)
}

// ─── Session ───────────────────────────────────────────────────────────

// DummySession implements webclient.Session over a scripted page. The
// readiness element reads "" until it has been looked up ReadyAfter times.
type DummySession struct {
	ReadyID    string
	ReadyAfter int
	ReadyText  string

	// MissingUntilReady reports the readiness element as not found, instead
	// of empty, while the page is not ready.
	MissingUntilReady bool

	Texts       map[string]string
	FailOn      map[string]error
	NavigateErr error

	mu        sync.Mutex
	Navigated []string
	Lookups   map[string]int
	Closes    int
}

// NewDummySession returns a fast.com shaped page that becomes ready on the
// readyAfter-th check.
func NewDummySession(readyAfter int, value, unit string) *DummySession {
	return &DummySession{
		ReadyID:    "show-more-details-link",
		ReadyAfter: readyAfter,
		ReadyText:  "Show more info",
		Texts: map[string]string{
			"speed-value": value,
			"speed-units": unit,
		},
	}
}

func (s *DummySession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.Navigated = append(s.Navigated, url)
	s.mu.Unlock()
	return s.NavigateErr
}

func (s *DummySession) ElementText(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	if s.Lookups == nil {
		s.Lookups = map[string]int{}
	}
	s.Lookups[id]++
	n := s.Lookups[id]
	s.mu.Unlock()

	if err, ok := s.FailOn[id]; ok {
		return "", err
	}
	if id == s.ReadyID {
		if n >= s.ReadyAfter {
			return s.ReadyText, nil
		}
		if s.MissingUntilReady {
			return "", &webclient.AutomationError{Op: "find element #" + id, Err: webclient.ErrElementNotFound}
		}
		return "", nil
	}
	text, ok := s.Texts[id]
	if !ok {
		return "", &webclient.AutomationError{Op: "find element #" + id, Err: webclient.ErrElementNotFound}
	}
	return text, nil
}

func (s *DummySession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closes++
	return nil
}

// CloseCount returns how many times Close was called.
func (s *DummySession) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Closes
}

// LookupCount returns how many times id was looked up.
func (s *DummySession) LookupCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Lookups[id]
}

// ─── Backend ───────────────────────────────────────────────────────────

// DummyBackend implements webclient.Backend and hands out Session.
type DummyBackend struct {
	Session   webclient.Session
	EnsureErr error
	OpenErr   error

	mu          sync.Mutex
	EnsureCalls int
	Opened      []webclient.SessionOptions
}

func (b *DummyBackend) EnsureDriver(ctx context.Context) error {
	b.mu.Lock()
	b.EnsureCalls++
	b.mu.Unlock()
	return b.EnsureErr
}

func (b *DummyBackend) Open(ctx context.Context, opts webclient.SessionOptions) (webclient.Session, error) {
	b.mu.Lock()
	b.Opened = append(b.Opened, opts)
	b.mu.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	return b.Session, nil
}
