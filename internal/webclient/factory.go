package webclient

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/raysh454/speedcheck/internal/logging"
)

// BackendConstructor builds a Backend from the run's webclient settings.
type BackendConstructor func(cfg Config, logger logging.Logger) (Backend, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]BackendConstructor{}
)

// backendName normalizes a backend name; empty selects chromedp.
func backendName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return string(ClientChromedp)
	}
	return name
}

// RegisterBackend makes ctor available under name, replacing any earlier
// registration. Empty names and nil constructors are ignored.
func RegisterBackend(name string, ctor BackendConstructor) {
	if strings.TrimSpace(name) == "" || ctor == nil {
		return
	}
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[backendName(name)] = ctor
}

// NewBackend constructs the backend named by cfg.Client.
func NewBackend(cfg Config, logger logging.Logger) (Backend, error) {
	name := backendName(string(cfg.Client))
	if logger == nil {
		logger = logging.Nop()
	}

	backendsMu.RLock()
	ctor := backends[name]
	backendsMu.RUnlock()
	if ctor == nil {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrBackendNotRegistered, name, strings.Join(ListBackends(), ", "))
	}

	b, err := ctor(cfg, logger.With(logging.Field{Key: "backend", Value: name}))
	switch {
	case err != nil:
		return nil, fmt.Errorf("construct %s backend: %w", name, err)
	case b == nil:
		return nil, errors.New("construct " + name + " backend: constructor returned nil")
	}
	return b, nil
}

// ListBackends returns the registered backend names in sorted order.
func ListBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	return slices.Sorted(maps.Keys(backends))
}
