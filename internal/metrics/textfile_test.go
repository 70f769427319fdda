package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/speedcheck/internal/metrics"
	"github.com/raysh454/speedcheck/internal/speedtest"
)

func TestExporter_WriteTextfile(t *testing.T) {
	t.Parallel()
	taken := time.Unix(1700000000, 0)
	e := metrics.NewExporter()
	err := e.Record("https://fast.com/", &speedtest.Measurement{
		Taken:   taken,
		Value:   "120.5",
		Unit:    "Mbps",
		Elapsed: 12500 * time.Millisecond,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "speedcheck.prom")
	require.NoError(t, e.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, `speedcheck_speed_value{unit="Mbps",url="https://fast.com/"} 120.5`)
	assert.Contains(t, out, `speedcheck_speed_bits_per_second{url="https://fast.com/"} 1.205e+08`)
	assert.Contains(t, out, `speedcheck_duration_seconds{url="https://fast.com/"} 12.5`)
	assert.Contains(t, out, `speedcheck_last_success_timestamp_seconds{url="https://fast.com/"} 1.7e+09`)
	assert.True(t, strings.HasPrefix(out, "# HELP "), "expected exposition format, got %q", out)
}

func TestExporter_UnknownUnitSkipsBits(t *testing.T) {
	t.Parallel()
	e := metrics.NewExporter()
	require.NoError(t, e.Record("u", &speedtest.Measurement{Value: "3", Unit: "furlongs"}))

	path := filepath.Join(t.TempDir(), "out.prom")
	require.NoError(t, e.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "speed_bits_per_second{")
	assert.Contains(t, string(raw), `speedcheck_speed_value{unit="furlongs",url="u"} 3`)
}

func TestExporter_NonNumericValue(t *testing.T) {
	t.Parallel()
	e := metrics.NewExporter()
	err := e.Record("u", &speedtest.Measurement{Value: "--", Unit: "Mbps"})
	require.Error(t, err)
}

func TestExporter_WriteToMissingDir(t *testing.T) {
	t.Parallel()
	e := metrics.NewExporter()
	err := e.WriteTextfile(filepath.Join(t.TempDir(), "nope", "out.prom"))
	require.Error(t, err)
}
