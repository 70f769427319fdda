package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/speedcheck/internal/logging"
)

// NetHTTPBackend reads pages without a browser. Scripts never run, so it only
// suits pages whose progress is rendered server side, such as the demo
// server.
type NetHTTPBackend struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

func NewNetHTTPBackend(cfg Config, logger logging.Logger, client *http.Client) *NetHTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &NetHTTPBackend{cfg: cfg, client: client, logger: logger}
}

func (b *NetHTTPBackend) EnsureDriver(ctx context.Context) error {
	b.logger.Debug("nethttp backend needs no driver")
	return nil
}

func (b *NetHTTPBackend) Open(ctx context.Context, opts SessionOptions) (Session, error) {
	return &netHTTPSession{client: b.client, userAgent: b.cfg.UserAgent, logger: b.logger}, nil
}

type netHTTPSession struct {
	client    *http.Client
	userAgent string
	logger    logging.Logger

	mu     sync.Mutex
	url    string
	closed bool
}

func (s *netHTTPSession) Navigate(ctx context.Context, target string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return automationErr("navigate", ErrSessionClosed)
	}

	if _, err := s.fetch(ctx, target); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return automationErr("navigate", err)
	}

	s.mu.Lock()
	s.url = target
	s.mu.Unlock()
	return nil
}

// ElementText reloads the page on every call so server-side progress is
// observed.
func (s *netHTTPSession) ElementText(ctx context.Context, id string) (string, error) {
	op := "find element #" + id

	s.mu.Lock()
	target, closed := s.url, s.closed
	s.mu.Unlock()
	switch {
	case closed:
		return "", automationErr(op, ErrSessionClosed)
	case target == "":
		return "", automationErr(op, ErrNotNavigated)
	}

	doc, err := s.fetch(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", automationErr(op, err)
	}

	sel := findByID(doc, id)
	if sel.Length() == 0 {
		return "", automationErr(op, ErrElementNotFound)
	}
	if hidden(sel) {
		return "", nil
	}
	return renderedText(sel), nil
}

func (s *netHTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.CloseIdleConnections()
	return nil
}

func (s *netHTTPSession) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	s.logger.Debug("page fetched",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "status", Value: resp.StatusCode})

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// findByID matches on the attribute value so ids need no selector escaping.
func findByID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

// hidden reports whether sel or one of its ancestors is not displayed.
func hidden(sel *goquery.Selection) bool {
	nodes := []*goquery.Selection{sel}
	sel.Parents().Each(func(_ int, p *goquery.Selection) {
		nodes = append(nodes, p)
	})
	for _, n := range nodes {
		if n.Is("[hidden], template, script, style, noscript") {
			return true
		}
		style, ok := n.Attr("style")
		if !ok {
			continue
		}
		style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}

// renderedText approximates innerText: script content dropped, whitespace
// collapsed.
func renderedText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, template, noscript, [hidden]").Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}
