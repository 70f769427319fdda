package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/speedcheck/internal/logging"
	"github.com/raysh454/speedcheck/internal/speedtest"
	"github.com/raysh454/speedcheck/internal/utils"
	"github.com/raysh454/speedcheck/internal/webclient"
)

// ErrInvalidConfig wraps every configuration problem.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigFileName is looked up under the XDG config directories.
const ConfigFileName = "speedcheck/config.yaml"

// Environment variables read by LoadEnv.
const (
	EnvHeadless  = "HEADLESS"
	EnvSleep     = "SLEEP"
	EnvURL       = "URL"
	EnvVerbose   = "VERBOSE"
	EnvMaxWait   = "MAX_WAIT"
	EnvBackend   = "BACKEND"
	EnvRemoteURL = "REMOTE_URL"
	EnvTextfile  = "TEXTFILE"
)

// Config is the run-scoped configuration. It is filled once at startup and
// not changed afterwards.
type Config struct {
	// Headless runs the browser without a window.
	Headless bool

	// Interval is slept before each readiness check.
	Interval time.Duration

	// URL is the speed-test page.
	URL string

	// Verbose is 0 (result line only), 1 (info) or 2+ (per-check lines).
	Verbose int

	// MaxWait bounds the wait for the page; 0 waits forever.
	MaxWait time.Duration

	Backend     string
	ChromePath  string
	RemoteURL   string
	UserAgent   string
	HTTPTimeout time.Duration

	// Textfile, when set, receives Prometheus gauges after a measurement.
	Textfile string

	// Color is auto, always or never.
	Color string
}

// DefaultConfig returns the defaults of an unconfigured run.
func DefaultConfig() *Config {
	return &Config{
		Headless:    true,
		Interval:    time.Second,
		URL:         "https://fast.com",
		Verbose:     0,
		MaxWait:     0,
		Backend:     string(webclient.ClientChromedp),
		HTTPTimeout: 30 * time.Second,
		Color:       logging.ColorAuto,
	}
}

// LoadEnv overrides c with the variables lookup knows about.
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, set func(string) error) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		if err := set(strings.TrimSpace(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
		}
	}

	num(EnvHeadless, func(v string) (err error) {
		c.Headless, err = parseFlag(v)
		return err
	})
	num(EnvSleep, func(v string) (err error) {
		c.Interval, err = ParseSeconds(v)
		return err
	})
	num(EnvVerbose, func(v string) (err error) {
		c.Verbose, err = strconv.Atoi(v)
		return err
	})
	num(EnvMaxWait, func(v string) (err error) {
		c.MaxWait, err = ParseSeconds(v)
		return err
	})
	str(EnvURL, &c.URL)
	str(EnvBackend, &c.Backend)
	str(EnvRemoteURL, &c.RemoteURL)
	str(EnvTextfile, &c.Textfile)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// parseFlag accepts integers like the HEADLESS=1 convention (non-zero is
// true) as well as true/false.
func parseFlag(v string) (bool, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n != 0, nil
	}
	return strconv.ParseBool(v)
}

// ParseSeconds reads a whole number of seconds, or a Go duration such as
// "500ms".
func ParseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// fileConfig mirrors Config in the YAML file; absent keys keep their value.
type fileConfig struct {
	Headless    *bool    `yaml:"headless"`
	Sleep       *seconds `yaml:"sleep"`
	URL         *string  `yaml:"url"`
	Verbose     *int     `yaml:"verbose"`
	MaxWait     *seconds `yaml:"max_wait"`
	Backend     *string  `yaml:"backend"`
	ChromePath  *string  `yaml:"chrome_path"`
	RemoteURL   *string  `yaml:"remote_url"`
	UserAgent   *string  `yaml:"user_agent"`
	HTTPTimeout *seconds `yaml:"http_timeout"`
	Textfile    *string  `yaml:"textfile"`
	Color       *string  `yaml:"color"`
}

// seconds decodes either an integer number of seconds or a duration string.
type seconds time.Duration

func (s *seconds) UnmarshalYAML(node *yaml.Node) error {
	d, err := ParseSeconds(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = seconds(d)
	return nil
}

// LoadFile overrides c with the keys present in the YAML file at path.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	set(&c.Headless, fc.Headless)
	set(&c.URL, fc.URL)
	set(&c.Verbose, fc.Verbose)
	set(&c.Backend, fc.Backend)
	set(&c.ChromePath, fc.ChromePath)
	set(&c.RemoteURL, fc.RemoteURL)
	set(&c.UserAgent, fc.UserAgent)
	set(&c.Textfile, fc.Textfile)
	set(&c.Color, fc.Color)
	if fc.Sleep != nil {
		c.Interval = time.Duration(*fc.Sleep)
	}
	if fc.MaxWait != nil {
		c.MaxWait = time.Duration(*fc.MaxWait)
	}
	if fc.HTTPTimeout != nil {
		c.HTTPTimeout = time.Duration(*fc.HTTPTimeout)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// DefaultConfigFile returns the first existing speedcheck/config.yaml in the
// XDG config directories, or "" when there is none.
func DefaultConfigFile() string {
	path, err := xdg.SearchConfigFile(ConfigFileName)
	if err != nil {
		return ""
	}
	return path
}

// Validate checks c. A schemeless URL gets an https:// prefix; it is
// otherwise loaded exactly as configured.
func (c *Config) Validate() error {
	var errs []error
	if err := c.SpeedtestConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Verbose < 0 {
		errs = append(errs, fmt.Errorf("verbose must not be negative, got %d", c.Verbose))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("http timeout must not be negative, got %s", c.HTTPTimeout))
	}
	switch c.Color {
	case logging.ColorAuto, logging.ColorAlways, logging.ColorNever, "":
	default:
		errs = append(errs, fmt.Errorf("color must be auto, always or never, got %q", c.Color))
	}
	if u, err := utils.ValidateTarget(c.URL); err != nil {
		errs = append(errs, fmt.Errorf("url: %w", err))
	} else {
		c.URL = u
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SpeedtestConfig derives the polling configuration.
func (c *Config) SpeedtestConfig() speedtest.Config {
	cfg := speedtest.DefaultConfig()
	cfg.Interval = c.Interval
	cfg.MaxWait = c.MaxWait
	return cfg
}

// WebClientConfig derives the backend configuration.
func (c *Config) WebClientConfig() webclient.Config {
	return webclient.Config{
		Client:      webclient.Client(c.Backend),
		ChromePath:  c.ChromePath,
		RemoteURL:   c.RemoteURL,
		HTTPTimeout: c.HTTPTimeout,
		UserAgent:   c.UserAgent,
	}
}

// SessionOptions derives the options the session is opened with.
func (c *Config) SessionOptions() webclient.SessionOptions {
	return webclient.SessionOptions{
		Headless:     c.Headless,
		WindowWidth:  1280,
		WindowHeight: 900,
	}
}
