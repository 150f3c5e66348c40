package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexu8007/Oxidized/internal/infra/buildinfo"
)

// Collector exports the build information of the running binary as a
// constant gauge.
type Collector struct {
	desc *prometheus.Desc
}

// NewCollector creates the build info collector.
func NewCollector() *Collector {
	return &Collector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "build_info"),
			"Build information of the running binary.",
			[]string{"version", "commit", "go_version"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	info := buildinfo.Get()
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, 1,
		info.Version, info.Commit, info.GoVersion)
}
