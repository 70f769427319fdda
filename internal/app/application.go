package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raysh454/speedcheck/internal/logging"
	"github.com/raysh454/speedcheck/internal/metrics"
	"github.com/raysh454/speedcheck/internal/speedtest"
	"github.com/raysh454/speedcheck/internal/webclient"
)

// Application runs a single measurement. It owns the browser session for
// the whole run and releases it on every path out of Run.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Backend webclient.Backend

	out   io.Writer
	clock speedtest.Clock
}

// Option customizes an Application.
type Option func(*Application)

// WithOutput sets where the result line goes, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(a *Application) { a.out = w }
}

// WithClock replaces the system clock used for polling and timestamps.
func WithClock(c speedtest.Clock) Option {
	return func(a *Application) { a.clock = c }
}

// NewApplication constructs an Application from already-built parts.
func NewApplication(cfg *Config, logger logging.Logger, backend webclient.Backend, opts ...Option) *Application {
	if logger == nil {
		logger = logging.Nop()
	}
	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Backend: backend,
		out:     os.Stdout,
		clock:   speedtest.SystemClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run performs the measurement and prints the result line.
//
// An interrupted run (ctx canceled) and an automation failure while driving
// the page both end the run normally: Run returns nil. Errors while
// preparing the browser and ErrWaitTimeout are returned.
func (a *Application) Run(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}

	session, err := a.openSession(ctx)
	if err != nil {
		return a.settle(ctx, err)
	}
	defer a.closeSession(session)

	err = a.measure(ctx, session)
	if err == nil {
		return nil
	}
	if webclient.IsAutomationError(err) && ctx.Err() == nil {
		a.Logger.Error(err.Error())
		return nil
	}
	return a.settle(ctx, err)
}

// Doctor checks that a browser can be started and can load the target page.
func (a *Application) Doctor(ctx context.Context) error {
	session, err := a.openSession(ctx)
	if err != nil {
		return a.settle(ctx, err)
	}
	defer a.closeSession(session)

	a.Logger.Info("navigating to " + a.Config.URL)
	if err := session.Navigate(ctx, a.Config.URL); err != nil {
		return a.settle(ctx, err)
	}
	if _, err := fmt.Fprintf(a.out, "ok,%s\n", a.Config.URL); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// settle swallows errors caused by the run being interrupted.
func (a *Application) settle(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		a.Logger.Debug("interrupted")
		return nil
	}
	return err
}

func (a *Application) openSession(ctx context.Context) (webclient.Session, error) {
	a.Logger.Info("install current browser driver")
	if err := a.Backend.EnsureDriver(ctx); err != nil {
		return nil, fmt.Errorf("ensure driver: %w", err)
	}

	opts := a.Config.SessionOptions()
	session, err := a.Backend.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	return session, nil
}

func (a *Application) closeSession(session webclient.Session) {
	a.Logger.Info("quit")
	if err := session.Close(); err != nil {
		a.Logger.Warn("closing browser session", logging.Field{Key: "error", Value: err})
	}
	a.Logger.Info("done")
}

func (a *Application) measure(ctx context.Context, session webclient.Session) error {
	a.Logger.Info("navigating to " + a.Config.URL)
	if err := session.Navigate(ctx, a.Config.URL); err != nil {
		return err
	}

	m, err := speedtest.NewMeasurer(a.Config.SpeedtestConfig(), a.Logger, speedtest.WithClock(a.clock)).Measure(ctx, session)
	if err != nil {
		return err
	}

	a.Logger.Info("internet access speed: "+m.String(), logging.Field{Key: "id", Value: m.ID})
	if _, err := fmt.Fprintln(a.out, m.CSV()); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if a.Config.Textfile != "" {
		a.export(m)
	}
	return nil
}

// export failures are reported but do not fail a run whose result line was
// already printed.
func (a *Application) export(m *speedtest.Measurement) {
	e := metrics.NewExporter()
	if err := e.Record(a.Config.URL, m); err != nil {
		a.Logger.Warn("skipping metrics export", logging.Field{Key: "error", Value: err})
		return
	}
	if err := e.WriteTextfile(a.Config.Textfile); err != nil {
		a.Logger.Warn("metrics export failed", logging.Field{Key: "error", Value: err})
		return
	}
	a.Logger.Info("metrics written", logging.Field{Key: "path", Value: a.Config.Textfile})
}
