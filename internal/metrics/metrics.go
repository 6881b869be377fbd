package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll instrumentation, labeled by poll category.
var (
	PollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "embywatch",
		Name:      "poll_total",
		Help:      "Completed poll cycles per category.",
	}, []string{"category"})

	PollFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "embywatch",
		Name:      "poll_failures_total",
		Help:      "Failed poll cycles per category.",
	}, []string{"category"})

	PollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "embywatch",
		Name:      "poll_duration_seconds",
		Help:      "Poll cycle duration per category.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"category"})

	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "embywatch",
		Name:      "active_streams",
		Help:      "Sessions currently playing media.",
	})

	BandwidthMBps = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "embywatch",
		Name:      "bandwidth_mbps",
		Help:      "Estimated total streaming bandwidth in MB/s.",
	})
)
