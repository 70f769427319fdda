// Package demoserver serves a local stand-in for a fast.com style speed-test
// page. The "show more info" link stays hidden until the configured duration
// has passed since start or the last reset, then the result is displayed.
package demoserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/speedcheck/internal/logging"
)

// DemoServer is a simulated speed-test site.
type DemoServer struct {
	cfg    Config
	router chi.Router
	logger logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	started time.Time
	views   int
}

// Option customizes a DemoServer.
type Option func(*DemoServer)

// WithNow replaces time.Now, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *DemoServer) { s.now = now }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(s *DemoServer) { s.logger = l }
}

// NewDemoServer creates a new demo server instance. The simulated test
// starts immediately.
func NewDemoServer(cfg Config, opts ...Option) *DemoServer {
	s := &DemoServer{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.routes()
	return s
}

func (s *DemoServer) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/demo/state", s.handleState)
	r.Post("/demo/reset", s.handleReset)
}

// Handler returns the server's router.
func (s *DemoServer) Handler() http.Handler {
	return s.router
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *DemoServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *DemoServer) Start(ctx context.Context) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("demo server listening", logging.Field{Key: "addr", Value: srv.Addr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown demo server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// State is the JSON body of /demo/state.
type State struct {
	Ready           bool    `json:"ready"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	Value           string  `json:"value"`
	Unit            string  `json:"unit"`
	Views           int     `json:"views"`
}

func (s *DemoServer) state() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	elapsed := s.now().Sub(s.started)
	return State{
		Ready:           elapsed >= s.cfg.Duration,
		ElapsedSeconds:  elapsed.Seconds(),
		DurationSeconds: s.cfg.Duration.Seconds(),
		Value:           s.cfg.Value,
		Unit:            s.cfg.Unit,
		Views:           s.views,
	}
}

type pageData struct {
	Ready       bool
	Value       string
	Final       string
	Unit        string
	RemainingMS int64
}

func (s *DemoServer) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.views++
	s.mu.Unlock()

	st := s.state()
	data := pageData{Ready: st.Ready, Value: "0", Final: st.Value, Unit: st.Unit}
	if st.Ready {
		data.Value = st.Value
	} else {
		data.RemainingMS = int64((st.DurationSeconds - st.ElapsedSeconds) * 1000)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Warn("render page", logging.Field{Key: "error", Value: err})
	}
}

func (s *DemoServer) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *DemoServer) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.started = s.now()
	s.views = 0
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "test restarted"})
}

func (s *DemoServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", logging.Field{Key: "method", Value: r.Method}, logging.Field{Key: "path", Value: r.URL.Path})
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Internet Speed Test</title>
    <style>
        body { font-family: system-ui, sans-serif; text-align: center; padding-top: 80px; }
        #speed-value { font-size: 6em; }
        #speed-units { font-size: 2em; color: #666; }
    </style>
</head>
<body>
    <div class="speed-results-container">
        <div id="speed-value">{{.Value}}</div>
        <div id="speed-units">{{.Unit}}</div>
    </div>
    <a id="show-more-details-link" href="#"{{if not .Ready}} style="display:none"{{end}}>Show more info</a>
    {{- if not .Ready}}
    <script>
        setTimeout(function () {
            document.getElementById("speed-value").textContent = {{.Final}};
            document.getElementById("show-more-details-link").style.display = "";
        }, {{.RemainingMS}});
    </script>
    {{- end}}
</body>
</html>`
