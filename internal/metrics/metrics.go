package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"sync"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	HTTPRequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_http_requests_total",
			Help: "Total number of handled HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"route"},
	)
	DomainEventsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_domain_events_total",
			Help: "Total number of published domain events.",
		},
		[]string{"event"},
	)
	BackupsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_snapshot_backups_total",
			Help: "Total number of snapshot backups by result.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(HTTPRequestsCounter)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(DomainEventsCounter)
		prometheus.MustRegister(BackupsCounter)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
