package webclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/raysh454/speedcheck/internal/logging"
	"github.com/raysh454/speedcheck/internal/webclient"
)

const fixturePage = `<!DOCTYPE html>
<html><body>
  <div id="speed-value">  120.5 </div>
  <div id="speed-units">Mbps</div>
  <a id="hidden-link" style="display: none">Show more info</a>
  <div hidden><span id="nested-hidden">secret</span></div>
  <div style="visibility:hidden"><span id="invisible">ghost</span></div>
  <p id="mixed">Down <b>load</b>
     <script>var x = 1;</script> done</p>
  <span id="empty"></span>
  <span id="weird.id:1">odd</span>
</body></html>`

func newFixtureSession(t *testing.T, handler http.Handler) (webclient.Session, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	b := webclient.NewNetHTTPBackend(webclient.Config{UserAgent: "speedcheck-test"}, logging.Nop(), ts.Client())
	if err := b.EnsureDriver(context.Background()); err != nil {
		t.Fatalf("EnsureDriver: %v", err)
	}
	s, err := b.Open(context.Background(), webclient.SessionOptions{Headless: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, ts
}

func staticHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, body)
	})
}

// ─── ElementText ───────────────────────────────────────────────────────

func TestNetHTTPSession_ElementText(t *testing.T) {
	t.Parallel()
	s, ts := newFixtureSession(t, staticHandler(fixturePage))
	ctx := context.Background()

	if err := s.Navigate(ctx, ts.URL); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	tests := map[string]string{
		"speed-value":   "120.5",
		"speed-units":   "Mbps",
		"hidden-link":   "",
		"nested-hidden": "",
		"invisible":     "",
		"mixed":         "Down load done",
		"empty":         "",
		"weird.id:1":    "odd",
	}
	for id, want := range tests {
		got, err := s.ElementText(ctx, id)
		if err != nil {
			t.Fatalf("ElementText(%q): %v", id, err)
		}
		if got != want {
			t.Errorf("ElementText(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestNetHTTPSession_MissingElement(t *testing.T) {
	t.Parallel()
	s, ts := newFixtureSession(t, staticHandler(fixturePage))
	ctx := context.Background()
	if err := s.Navigate(ctx, ts.URL); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	_, err := s.ElementText(ctx, "show-more-details-link")
	if !errors.Is(err, webclient.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	if !webclient.IsAutomationError(err) {
		t.Fatalf("expected automation error, got %T", err)
	}
}

func TestNetHTTPSession_ReloadsOnEveryLookup(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	s, ts := newFixtureSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if r.Header.Get("User-Agent") != "speedcheck-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		if n < 3 {
			_, _ = io.WriteString(w, `<a id="done"></a>`)
			return
		}
		_, _ = io.WriteString(w, `<a id="done">Show more info</a>`)
	}))
	ctx := context.Background()
	if err := s.Navigate(ctx, ts.URL); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	first, _ := s.ElementText(ctx, "done")
	second, _ := s.ElementText(ctx, "done")
	if first != "" || second != "Show more info" {
		t.Fatalf("got %q then %q", first, second)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 fetches, got %d", hits.Load())
	}
}

// ─── Errors ────────────────────────────────────────────────────────────

func TestNetHTTPSession_NavigateHTTPErrorIsAutomationError(t *testing.T) {
	t.Parallel()
	s, ts := newFixtureSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))

	err := s.Navigate(context.Background(), ts.URL)
	if !webclient.IsAutomationError(err) {
		t.Fatalf("expected automation error, got %v", err)
	}
}

func TestNetHTTPSession_ElementTextBeforeNavigate(t *testing.T) {
	t.Parallel()
	s, _ := newFixtureSession(t, staticHandler(fixturePage))

	_, err := s.ElementText(context.Background(), "speed-value")
	if !errors.Is(err, webclient.ErrNotNavigated) {
		t.Fatalf("expected ErrNotNavigated, got %v", err)
	}
}

func TestNetHTTPSession_CanceledContextIsNotAutomationError(t *testing.T) {
	t.Parallel()
	s, ts := newFixtureSession(t, staticHandler(fixturePage))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Navigate(ctx, ts.URL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if webclient.IsAutomationError(err) {
		t.Fatal("cancellation must not be reported as an automation error")
	}
}

func TestNetHTTPSession_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	s, ts := newFixtureSession(t, staticHandler(fixturePage))

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.Navigate(context.Background(), ts.URL); !errors.Is(err, webclient.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed after Close, got %v", err)
	}
}
