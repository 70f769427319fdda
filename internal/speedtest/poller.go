package speedtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/speedcheck/internal/logging"
	"github.com/raysh454/speedcheck/internal/webclient"
)

// ErrWaitTimeout is returned when the page is not ready within MaxWait.
var ErrWaitTimeout = errors.New("timed out waiting for the speed test to finish")

// Page is the part of a browser session a measurement reads from.
type Page interface {
	ElementText(ctx context.Context, id string) (string, error)
}

// Poller waits for the readiness element to show text.
type Poller struct {
	cfg    Config
	logger logging.Logger
	clock  Clock
}

func NewPoller(cfg Config, logger logging.Logger, clock Clock) *Poller {
	if logger == nil {
		logger = logging.Nop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Poller{cfg: cfg, logger: logger, clock: clock}
}

// WaitReady sleeps one interval, then checks the readiness element, until
// the element has text. It returns the time spent waiting.
//
// A readiness element that is not in the page yet counts as not ready.
// Any other page error ends the wait.
func (p *Poller) WaitReady(ctx context.Context, page Page) (time.Duration, error) {
	start := p.clock.Now()

	for tick := 1; ; tick++ {
		p.logger.Debug("checking for completion...", logging.Field{Key: "tick", Value: tick})

		if err := p.clock.Sleep(ctx, p.cfg.Interval); err != nil {
			return p.clock.Now().Sub(start), err
		}

		text, err := page.ElementText(ctx, p.cfg.ReadyID)
		elapsed := p.clock.Now().Sub(start)
		switch {
		case errors.Is(err, webclient.ErrElementNotFound):
			p.logger.Debug("readiness element not on the page yet", logging.Field{Key: "id", Value: p.cfg.ReadyID})
		case err != nil:
			return elapsed, err
		case text != "":
			return elapsed, nil
		}

		if p.cfg.MaxWait > 0 && elapsed >= p.cfg.MaxWait {
			return elapsed, fmt.Errorf("%w after %s (%d checks)", ErrWaitTimeout, elapsed.Round(time.Millisecond), tick)
		}
	}
}
