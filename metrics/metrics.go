// Package metrics holds the prometheus collectors of the frame daemon
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests labeled by method, route and status",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	settingsWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_writes_total",
			Help: "Total number of settings field writes labeled by field and result",
		},
		[]string{"field", "result"},
	)
	walletRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_requests_total",
			Help: "Total number of wallet service calls labeled by operation and result",
		},
		[]string{"op", "result"},
	)
	artworkSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artwork_syncs_total",
			Help: "Total number of artwork syncs labeled by result",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordSettingsWrite(field string, err error) {
	settingsWritesTotal.WithLabelValues(field, result(err)).Inc()
}

func RecordWalletRequest(op string, err error) {
	walletRequestsTotal.WithLabelValues(op, result(err)).Inc()
}

func RecordArtworkSync(err error) {
	artworkSyncsTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
