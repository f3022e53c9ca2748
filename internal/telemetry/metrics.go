package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK      = "ok"
	OutcomeIO      = "io_failure"
	OutcomeDecode  = "decode_failure"
	OutcomeReject  = "rejected"
	OutcomeFailed  = "action_failed"
	OutcomeUnknown = "unknown"
)

var (
	// CommandsTotal counts network manager invocations by category and outcome
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "strct_wifi",
			Name:      "commands_total",
			Help:      "Total number of network manager commands by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// CommandDuration tracks how long each network manager invocation blocks
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "strct_wifi",
			Name:      "command_duration_seconds",
			Help:      "Duration of network manager commands",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"category"},
	)

	// NetworksSeen is the size of the most recent scan result
	NetworksSeen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "strct_wifi",
			Name:      "networks_seen",
			Help:      "Number of networks returned by the last scan",
		},
		[]string{"interface"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent and panics if another collector already owns a name.
func InitMetrics() {
	once.Do(func() {
		prometheus.MustRegister(CommandsTotal, CommandDuration, NetworksSeen)
	})
}

// Recorder receives one observation per classified command.
type Recorder interface {
	ObserveCommand(category, outcome string, d time.Duration)
	ObserveScan(iface string, n int)
}

// Prometheus records into the package-level collectors.
type Prometheus struct{}

func (Prometheus) ObserveCommand(category, outcome string, d time.Duration) {
	CommandsTotal.WithLabelValues(category, outcome).Inc()
	CommandDuration.WithLabelValues(category).Observe(d.Seconds())
}

func (Prometheus) ObserveScan(iface string, n int) {
	NetworksSeen.WithLabelValues(iface).Set(float64(n))
}

// Nop discards observations.
type Nop struct{}

func (Nop) ObserveCommand(string, string, time.Duration) {}
func (Nop) ObserveScan(string, int)                      {}
