// Package webclient acquires and drives the browser session a measurement
// runs in. Backends are registered by name; see factory.go.
package webclient

import "context"

// Backend prepares and opens browser sessions.
type Backend interface {
	// EnsureDriver locates whatever the backend needs to drive a browser.
	// A failure here means no session can be opened.
	EnsureDriver(ctx context.Context) error

	// Open starts a new session. The caller owns it and must Close it.
	Open(ctx context.Context, opts SessionOptions) (Session, error)
}

// Session is a single live browser page.
type Session interface {
	// Navigate loads url and returns once the page has loaded.
	Navigate(ctx context.Context, url string) error

	// ElementText returns the rendered text of the element with the given
	// id. Elements that are not displayed read as "". A missing element
	// yields an error wrapping ErrElementNotFound.
	ElementText(ctx context.Context, id string) (string, error)

	// Close releases the session. Calls after the first are no-ops.
	Close() error
}
