package webclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/speedcheck/internal/logging"
)

// ChromeDPBackend launches a local Chrome through chromedp.
type ChromeDPBackend struct {
	cfg      Config
	logger   logging.Logger
	execPath string
}

func NewChromeDPBackend(cfg Config, logger logging.Logger) *ChromeDPBackend {
	return &ChromeDPBackend{cfg: cfg, logger: logger}
}

// EnsureDriver locates the Chrome executable. chromedp speaks the DevTools
// protocol directly, so the browser binary is the only driver needed.
func (b *ChromeDPBackend) EnsureDriver(ctx context.Context) error {
	path, err := FindChrome(b.cfg.ChromePath)
	if err != nil {
		return err
	}
	b.execPath = path
	b.logger.Info("using browser", logging.Field{Key: "path", Value: path})
	return nil
}

func (b *ChromeDPBackend) Open(ctx context.Context, opts SessionOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if b.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(b.execPath))
	}
	if opts.Headless {
		b.logger.Info("headless mode")
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if b.cfg.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(b.cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return startSession(ctx, allocCtx, allocCancel, b.logger)
}

// RemoteBackend attaches to a browser that is already running with remote
// debugging enabled.
type RemoteBackend struct {
	cfg    Config
	logger logging.Logger
}

func NewRemoteBackend(cfg Config, logger logging.Logger) *RemoteBackend {
	return &RemoteBackend{cfg: cfg, logger: logger}
}

func (b *RemoteBackend) EnsureDriver(ctx context.Context) error {
	if strings.TrimSpace(b.cfg.RemoteURL) == "" {
		return ErrRemoteURLMissing
	}
	u, err := url.Parse(b.cfg.RemoteURL)
	if err != nil {
		return fmt.Errorf("parse remote url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("remote url %q: unsupported scheme %q", b.cfg.RemoteURL, u.Scheme)
	}
	return nil
}

// Open ignores opts.Headless: the remote browser was started by someone else.
func (b *RemoteBackend) Open(ctx context.Context, opts SessionOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Headless {
		b.logger.Debug("headless has no effect on a remote browser")
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), b.cfg.RemoteURL)
	return startSession(ctx, allocCtx, allocCancel, b.logger)
}

type chromedpSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      logging.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// startSession launches the browser. Cancelling ctx during the launch tears
// the half-started browser down; afterwards ctx no longer affects it.
func startSession(ctx, allocCtx context.Context, allocCancel context.CancelFunc, logger logging.Logger) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp: " + fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chromedp error: " + fmt.Sprintf(format, args...))
		}),
	)

	// The first Run allocates the browser and ties its lifetime to the
	// context it is given, so it must be the tab context itself.
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	interrupted := !stop()
	if err != nil || interrupted {
		cancel()
		allocCancel()
		if interrupted {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &chromedpSession{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// run executes actions on the tab. Cancelling ctx aborts the actions but
// leaves the browser up for Close.
func (s *chromedpSession) run(ctx context.Context, op string, fn func(context.Context) error) error {
	if s.closed.Load() {
		return automationErr(op, ErrSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := fn(opCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return automationErr(op, err)
	}
	return nil
}

func (s *chromedpSession) Navigate(ctx context.Context, target string) error {
	return s.run(ctx, "navigate", func(opCtx context.Context) error {
		resp, err := chromedp.RunResponse(opCtx, chromedp.Navigate(target))
		if err != nil {
			return err
		}
		logDocument(s.logger, target, resp)
		return nil
	})
}

func logDocument(logger logging.Logger, target string, resp *network.Response) {
	if resp == nil {
		logger.Debug("page loaded without a network response", logging.Field{Key: "url", Value: target})
		return
	}
	logger.Debug("page loaded",
		logging.Field{Key: "url", Value: resp.URL},
		logging.Field{Key: "status", Value: resp.Status},
		logging.Field{Key: "protocol", Value: resp.Protocol})
}

// elementTextJS reads what a user would see: "" for elements without a
// layout box or with visibility hidden, innerText otherwise.
const elementTextJS = `(() => {
	const el = document.getElementById(%s);
	if (!el) return {found: false, text: ""};
	const shown = el.getClientRects().length > 0 && getComputedStyle(el).visibility !== "hidden";
	return {found: true, text: shown ? el.innerText : ""};
})()`

type elementResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

func (s *chromedpSession) ElementText(ctx context.Context, id string) (string, error) {
	quoted, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("quote element id: %w", err)
	}

	var res elementResult
	op := "find element #" + id
	err = s.run(ctx, op, func(opCtx context.Context) error {
		return chromedp.Run(opCtx, chromedp.Evaluate(fmt.Sprintf(elementTextJS, quoted), &res))
	})
	if err != nil {
		return "", err
	}
	if !res.Found {
		return "", automationErr(op, ErrElementNotFound)
	}
	return strings.TrimSpace(res.Text), nil
}

func (s *chromedpSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.closeErr = fmt.Errorf("close browser: %w", err)
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}
