package prometheus

import (
	"github.com/sacnlogger/configsync/host"

	"github.com/prometheus/client_golang/prometheus"
)

type HostStatsReader interface {
	Stats() host.Stats
}

type hostCollector struct {
	reader HostStatsReader

	servedDesc   *prometheus.Desc
	updatedDesc  *prometheus.Desc
	rejectedDesc *prometheus.Desc
}

func NewHostCollector(r HostStatsReader) prometheus.Collector {
	return &hostCollector{
		reader: r,
		servedDesc: prometheus.NewDesc(
			"configsync_host_served_total",
			"Number of documents served",
			nil, nil),
		updatedDesc: prometheus.NewDesc(
			"configsync_host_updated_total",
			"Number of documents stored",
			nil, nil),
		rejectedDesc: prometheus.NewDesc(
			"configsync_host_rejected_total",
			"Number of rejected updates",
			nil, nil),
	}
}

func (c *hostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.servedDesc
	ch <- c.updatedDesc
	ch <- c.rejectedDesc
}

func (c *hostCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.reader.Stats()

	ch <- prometheus.MustNewConstMetric(c.servedDesc, prometheus.CounterValue, float64(stats.Served))
	ch <- prometheus.MustNewConstMetric(c.updatedDesc, prometheus.CounterValue, float64(stats.Updated))
	ch <- prometheus.MustNewConstMetric(c.rejectedDesc, prometheus.CounterValue, float64(stats.Rejected))
}
