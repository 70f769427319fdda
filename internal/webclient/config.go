package webclient

import "time"

type Client string

const (
	ClientChromedp Client = "chromedp"
	ClientRemote   Client = "remote"
	ClientNetHTTP  Client = "nethttp"
)

// Config selects and configures a backend.
type Config struct {
	Client Client

	// ChromePath overrides Chrome discovery for the chromedp backend.
	ChromePath string

	// RemoteURL is the DevTools endpoint of an already running browser,
	// e.g. ws://127.0.0.1:9222/devtools/browser/<id> or http://127.0.0.1:9222.
	RemoteURL string

	// HTTPTimeout bounds each page fetch of the nethttp backend.
	HTTPTimeout time.Duration

	// UserAgent overrides the browser user agent when set.
	UserAgent string
}

// SessionOptions are applied when a session is opened.
type SessionOptions struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int
}
