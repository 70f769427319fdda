package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/speedcheck/internal/app"
	"github.com/raysh454/speedcheck/internal/webclient"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := app.DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Headless)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, "https://fast.com", cfg.URL)
	assert.Equal(t, 0, cfg.Verbose)
	assert.Zero(t, cfg.MaxWait)
	assert.Equal(t, "chromedp", cfg.Backend)
}

func TestLoadEnv(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, c *app.Config)
	}{
		{"headless zero", map[string]string{"HEADLESS": "0"}, func(t *testing.T, c *app.Config) {
			assert.False(t, c.Headless)
		}},
		{"headless any non-zero int", map[string]string{"HEADLESS": "7"}, func(t *testing.T, c *app.Config) {
			assert.True(t, c.Headless)
		}},
		{"headless bool word", map[string]string{"HEADLESS": "false"}, func(t *testing.T, c *app.Config) {
			assert.False(t, c.Headless)
		}},
		{"sleep seconds", map[string]string{"SLEEP": "3"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, 3*time.Second, c.Interval)
		}},
		{"sleep duration", map[string]string{"SLEEP": "250ms"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, 250*time.Millisecond, c.Interval)
		}},
		{"url and verbose", map[string]string{"URL": "https://example.com/test", "VERBOSE": "2"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, "https://example.com/test", c.URL)
			assert.Equal(t, 2, c.Verbose)
		}},
		{"blank numbers keep defaults", map[string]string{"SLEEP": " ", "VERBOSE": ""}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, time.Second, c.Interval)
			assert.Equal(t, 0, c.Verbose)
		}},
		{"backend and export", map[string]string{"BACKEND": "nethttp", "TEXTFILE": "/tmp/x.prom", "MAX_WAIT": "90"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, "nethttp", c.Backend)
			assert.Equal(t, "/tmp/x.prom", c.Textfile)
			assert.Equal(t, 90*time.Second, c.MaxWait)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := app.DefaultConfig()
			require.NoError(t, cfg.LoadEnv(envMap(tt.env)))
			tt.check(t, cfg)
		})
	}
}

func TestLoadEnv_Invalid(t *testing.T) {
	t.Parallel()
	cfg := app.DefaultConfig()
	err := cfg.LoadEnv(envMap(map[string]string{"SLEEP": "soon", "VERBOSE": "loud"}))

	require.ErrorIs(t, err, app.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "SLEEP")
	assert.Contains(t, err.Error(), "VERBOSE")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
headless: false
sleep: 2
max_wait: 1m
url: https://example.org
backend: remote
remote_url: ws://127.0.0.1:9222
`), 0o644))

	cfg := app.DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	assert.False(t, cfg.Headless)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, time.Minute, cfg.MaxWait)
	assert.Equal(t, "https://example.org", cfg.URL)
	assert.Equal(t, "remote", cfg.Backend)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.RemoteURL)
	assert.Equal(t, 0, cfg.Verbose, "absent keys keep their value")

	wc := cfg.WebClientConfig()
	assert.Equal(t, webclient.ClientRemote, wc.Client)
	assert.Equal(t, "ws://127.0.0.1:9222", wc.RemoteURL)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cfg := app.DefaultConfig()
	require.Error(t, cfg.LoadFile(filepath.Join(dir, "missing.yaml")))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sleep: forever\n"), 0o644))
	err := cfg.LoadFile(bad)
	require.ErrorIs(t, err, app.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "line 1")
}

func TestFileThenEnvPrecedence(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sleep: 5\nverbose: 1\n"), 0o644))

	cfg := app.DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))
	require.NoError(t, cfg.LoadEnv(envMap(map[string]string{"SLEEP": "2"})))

	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 1, cfg.Verbose)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(c *app.Config)
		want   string
	}{
		{"zero interval", func(c *app.Config) { c.Interval = 0 }, "poll interval"},
		{"negative max wait", func(c *app.Config) { c.MaxWait = -time.Second }, "max wait"},
		{"negative verbose", func(c *app.Config) { c.Verbose = -1 }, "verbose"},
		{"bad color", func(c *app.Config) { c.Color = "rainbow" }, "color"},
		{"bad url scheme", func(c *app.Config) { c.URL = "ftp://fast.com" }, "url"},
		{"empty url", func(c *app.Config) { c.URL = "" }, "url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := app.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, app.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_KeepsURLAsConfigured(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"https://host.example/a/?b=2&a=1#/x":  "https://host.example/a/?b=2&a=1#/x",
		"https://example.com/speed/":          "https://example.com/speed/",
		"https://example.com/test?z=1&a=2&a=1": "https://example.com/test?z=1&a=2&a=1",
		"fast.com":                            "https://fast.com",
	}
	for in, want := range tests {
		cfg := app.DefaultConfig()
		cfg.URL = in
		require.NoError(t, cfg.Validate(), in)
		assert.Equal(t, want, cfg.URL)
	}
}
