package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(dbPoolStats, knownUsers)
}

var (
	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Current state of the database connection pool.",
		},
		[]string{"state"}, // 'total', 'idle', 'in_use'
	)

	knownUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "known_users",
			Help: "Number of Telegram users the bot has ever seen.",
		},
	)
)

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
}

func SetKnownUsers(n int) {
	knownUsers.Set(float64(n))
}
