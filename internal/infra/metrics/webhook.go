package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookUpdatesReceivedTotal,
		webhookUpdatesDroppedTotal,
		updateQueueDepth,
		updateProcessingSeconds,
	)
}

var (
	webhookUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_received_total",
			Help: "Updates delivered to the webhook endpoint, labeled by kind.",
		},
		[]string{"kind"}, // 'message', 'callback', 'other'
	)

	webhookUpdatesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_dropped_total",
			Help: "Updates rejected before processing, labeled by reason.",
		},
		[]string{"reason"}, // 'queue_full', 'processor_down', 'bad_payload', 'unauthorized'
	)

	updateQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "update_queue_depth",
			Help: "Number of updates waiting for the background processor.",
		},
	)

	updateProcessingSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "update_processing_seconds",
			Help:    "Time spent handling one update end to end.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

func IncUpdateReceived(kind string) {
	webhookUpdatesReceivedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncUpdateDropped(reason string) {
	webhookUpdatesDroppedTotal.WithLabelValues(norm(reason)).Inc()
}

func SetQueueDepth(n int) {
	updateQueueDepth.Set(float64(n))
}

func ObserveUpdateProcessing(seconds float64) {
	updateProcessingSeconds.Observe(seconds)
}
