package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL          = errors.New("empty url")
	ErrMissingHost       = errors.New("missing host")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrInvalidHost       = errors.New("invalid host")
)

// targetSchemes are the schemes a speed-test page may be loaded from.
var targetSchemes = []string{"http", "https"}

// ValidateTarget checks that raw names a page a browser can load and returns
// it as given, except that schemeless input gets an "https://" prefix.
// Path, query and fragment are left alone.
func ValidateTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", &url.Error{Op: "validate", URL: raw, Err: ErrEmptyURL}
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if !slices.Contains(targetSchemes, strings.ToLower(u.Scheme)) {
		return "", &url.Error{Op: "validate", URL: target, Err: fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)}
	}
	host := u.Hostname()
	if host == "" {
		return "", &url.Error{Op: "validate", URL: target, Err: ErrMissingHost}
	}
	if net.ParseIP(host) == nil {
		if _, err := idna.Lookup.ToASCII(host); err != nil {
			return "", &url.Error{Op: "validate", URL: target, Err: fmt.Errorf("%w: %v", ErrInvalidHost, err)}
		}
	}
	return target, nil
}
