// Package metrics exports a measurement in the Prometheus text format so the
// node_exporter textfile collector can pick it up after a cron run.
package metrics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/raysh454/speedcheck/internal/speedtest"
)

const namespace = "speedcheck"

var unitBits = map[string]float64{
	"bps":  1,
	"kbps": 1e3,
	"mbps": 1e6,
	"gbps": 1e9,
}

// Exporter holds the gauges of a single run in a private registry.
type Exporter struct {
	reg         *prometheus.Registry
	speed       *prometheus.GaugeVec
	bits        *prometheus.GaugeVec
	duration    *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Exporter{
		reg: reg,
		speed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed_value",
			Help:      "Speed as reported by the page, in the page's unit.",
		}, []string{"url", "unit"}),
		bits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed_bits_per_second",
			Help:      "Reported speed converted to bits per second.",
		}, []string{"url"}),
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Time spent waiting for the speed test to finish.",
		}, []string{"url"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed measurement.",
		}, []string{"url"}),
	}
}

// Record sets the gauges from m. The value must be numeric.
func (e *Exporter) Record(target string, m *speedtest.Measurement) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(m.Value), 64)
	if err != nil {
		return fmt.Errorf("speed value %q is not numeric: %w", m.Value, err)
	}

	e.speed.WithLabelValues(target, m.Unit).Set(value)
	if mult, ok := unitBits[strings.ToLower(strings.TrimSpace(m.Unit))]; ok {
		e.bits.WithLabelValues(target).Set(value * mult)
	}
	e.duration.WithLabelValues(target).Set(m.Elapsed.Seconds())
	e.lastSuccess.WithLabelValues(target).Set(float64(m.Taken.UnixNano()) / 1e9)
	return nil
}

// WriteTextfile atomically replaces path with the current gauges.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
