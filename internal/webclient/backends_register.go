package webclient

import (
	"net/http"
	"time"

	"github.com/raysh454/speedcheck/internal/logging"
)

func init() {
	RegisterDefaultBackends()
}

// RegisterDefaultBackends registers the chromedp, remote and nethttp backends.
func RegisterDefaultBackends() {
	RegisterBackend(string(ClientChromedp), func(cfg Config, logger logging.Logger) (Backend, error) {
		return NewChromeDPBackend(cfg, logger), nil
	})

	RegisterBackend(string(ClientRemote), func(cfg Config, logger logging.Logger) (Backend, error) {
		return NewRemoteBackend(cfg, logger), nil
	})

	RegisterBackend(string(ClientNetHTTP), func(cfg Config, logger logging.Logger) (Backend, error) {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		logger.Debug("created nethttp backend", logging.Field{Key: "timeout", Value: timeout.String()})
		return NewNetHTTPBackend(cfg, logger, &http.Client{Timeout: timeout}), nil
	})
}
