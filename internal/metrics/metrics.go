package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_dispatch_sends_total",
			Help: "Individual sends issued by the dispatcher",
		},
		[]string{"outcome"}, // sent, failed
	)

	DispatchBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_dispatch_batches_total",
			Help: "Batches processed by the dispatcher",
		},
	)

	DispatchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outreach_dispatch_run_duration_seconds",
			Help:    "Wall time of a whole dispatch run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17m
		},
	)

	CampaignRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_campaign_runs_total",
			Help: "Campaign runs by final status",
		},
		[]string{"status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outreach_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"method", "route", "status"},
	)
)

func RecordSend(outcome string) {
	DispatchSends.WithLabelValues(outcome).Inc()
}

func RecordBatch() {
	DispatchBatches.Inc()
}

func RecordRun(duration time.Duration) {
	DispatchRunDuration.Observe(duration.Seconds())
}

func RecordCampaignRun(status string) {
	CampaignRuns.WithLabelValues(status).Inc()
}

func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
