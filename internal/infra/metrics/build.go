package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Constant gauge labelled with the running build's version, commit and Go toolchain.",
	},
	[]string{"version", "commit", "goversion"},
)

// SetBuildInfo publishes the ldflags-injected version and commit once at
// startup so dashboards can tell deployments apart.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
