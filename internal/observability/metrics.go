package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Parse outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeMalformed = "malformed"
	OutcomeTooLarge  = "too_large"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fixwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fixwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	parseMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fixwire",
			Subsystem: "parse",
			Name:      "messages_total",
			Help:      "Messages handed to the field scanner.",
		},
		[]string{"source", "outcome"},
	)
	parseFields = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fixwire",
			Subsystem: "parse",
			Name:      "fields",
			Help:      "Fields per successfully parsed message.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"source"},
	)
	parseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fixwire",
			Subsystem: "parse",
			Name:      "duration_seconds",
			Help:      "Time spent scanning one message.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		},
		[]string{"source"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, parseMessages, parseFields, parseDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordParse counts one message. fields is only observed for OutcomeOK.
func RecordParse(source, outcome string, fields int, duration time.Duration) {
	RegisterMetrics()
	parseMessages.WithLabelValues(source, outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	parseFields.WithLabelValues(source).Observe(float64(fields))
	parseDuration.WithLabelValues(source).Observe(duration.Seconds())
}
