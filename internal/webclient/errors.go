package webclient

import (
	"errors"
	"fmt"
)

var (
	ErrChromeNotFound       = errors.New("chrome not found")
	ErrRemoteURLMissing     = errors.New("remote backend needs a DevTools URL")
	ErrBackendNotRegistered = errors.New("webclient backend not registered")
	ErrElementNotFound      = errors.New("no such element")
	ErrSessionClosed        = errors.New("session closed")
	ErrNotNavigated         = errors.New("no page loaded")
)

// AutomationError is a failure reported by the browser automation layer
// while driving a page. The run treats it as recoverable.
type AutomationError struct {
	Op  string
	Err error
}

func (e *AutomationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// IsAutomationError reports whether err came from the automation layer.
func IsAutomationError(err error) bool {
	var ae *AutomationError
	return errors.As(err, &ae)
}

func automationErr(op string, err error) error {
	return &AutomationError{Op: op, Err: err}
}
