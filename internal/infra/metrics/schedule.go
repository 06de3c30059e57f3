package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		scheduleFetchesTotal,
		scheduleCacheTotal,
		scheduleRefreshCyclesTotal,
		portalLoginsTotal,
	)
}

var (
	scheduleFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_fetches_total",
			Help: "Timetable day fetches, labeled by source and outcome.",
		},
		[]string{"source", "outcome"}, // outcome: 'ok', 'error'
	)

	scheduleCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_cache_total",
			Help: "Day cache lookups, labeled by result.",
		},
		[]string{"result"}, // 'hit', 'miss', 'error'
	)

	scheduleRefreshCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_refresh_cycles_total",
			Help: "Background cache warm cycles, labeled by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'partial', 'error'
	)

	portalLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_logins_total",
			Help: "Authentication attempts against the university portal.",
		},
		[]string{"outcome"}, // 'ok', 'failed', 'reused'
	)
)

func IncScheduleFetch(source, outcome string) {
	scheduleFetchesTotal.WithLabelValues(norm(source), norm(outcome)).Inc()
}

func IncScheduleCache(result string) {
	scheduleCacheTotal.WithLabelValues(norm(result)).Inc()
}

func IncRefreshCycle(outcome string) {
	scheduleRefreshCyclesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncPortalLogin(outcome string) {
	portalLoginsTotal.WithLabelValues(norm(outcome)).Inc()
}
