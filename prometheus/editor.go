package prometheus

import (
	"github.com/sacnlogger/configsync/editor"

	"github.com/prometheus/client_golang/prometheus"
)

type editorCollector struct {
	name   string
	reader editor.StatsReader

	fetchesDesc        *prometheus.Desc
	fetchFailuresDesc  *prometheus.Desc
	savesDesc          *prometheus.Desc
	saveFailuresDesc   *prometheus.Desc
	saveRejectionsDesc *prometheus.Desc
	savingDesc         *prometheus.Desc
	dirtyDesc          *prometheus.Desc
	universesDesc      *prometheus.Desc
}

// NewEditorCollector returns a collector for the fetch and save counters of an editor.
// The name is used as value of the "editor" label.
func NewEditorCollector(name string, r editor.StatsReader) prometheus.Collector {
	return &editorCollector{
		name:   name,
		reader: r,
		fetchesDesc: prometheus.NewDesc(
			"configsync_fetches_total",
			"Number of successful fetches",
			[]string{"editor"}, nil),
		fetchFailuresDesc: prometheus.NewDesc(
			"configsync_fetch_failures_total",
			"Number of failed fetches",
			[]string{"editor"}, nil),
		savesDesc: prometheus.NewDesc(
			"configsync_saves_total",
			"Number of successful saves",
			[]string{"editor"}, nil),
		saveFailuresDesc: prometheus.NewDesc(
			"configsync_save_failures_total",
			"Number of failed saves",
			[]string{"editor"}, nil),
		saveRejectionsDesc: prometheus.NewDesc(
			"configsync_save_rejections_total",
			"Number of saves rejected because another save was in flight",
			[]string{"editor"}, nil),
		savingDesc: prometheus.NewDesc(
			"configsync_saving",
			"Whether a save is in flight",
			[]string{"editor"}, nil),
		dirtyDesc: prometheus.NewDesc(
			"configsync_dirty",
			"Whether the working copy has unsaved changes",
			[]string{"editor"}, nil),
		universesDesc: prometheus.NewDesc(
			"configsync_universes",
			"Number of universes in the working copy",
			[]string{"editor"}, nil),
	}
}

func (c *editorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.fetchesDesc
	ch <- c.fetchFailuresDesc
	ch <- c.savesDesc
	ch <- c.saveFailuresDesc
	ch <- c.saveRejectionsDesc
	ch <- c.savingDesc
	ch <- c.dirtyDesc
	ch <- c.universesDesc
}

func (c *editorCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.reader.Stats()

	ch <- prometheus.MustNewConstMetric(c.fetchesDesc, prometheus.CounterValue, float64(stats.Fetches), c.name)
	ch <- prometheus.MustNewConstMetric(c.fetchFailuresDesc, prometheus.CounterValue, float64(stats.FetchFailures), c.name)
	ch <- prometheus.MustNewConstMetric(c.savesDesc, prometheus.CounterValue, float64(stats.Saves), c.name)
	ch <- prometheus.MustNewConstMetric(c.saveFailuresDesc, prometheus.CounterValue, float64(stats.SaveFailures), c.name)
	ch <- prometheus.MustNewConstMetric(c.saveRejectionsDesc, prometheus.CounterValue, float64(stats.SaveRejections), c.name)
	ch <- prometheus.MustNewConstMetric(c.savingDesc, prometheus.GaugeValue, boolValue(stats.Saving), c.name)
	ch <- prometheus.MustNewConstMetric(c.dirtyDesc, prometheus.GaugeValue, boolValue(stats.Dirty), c.name)
	ch <- prometheus.MustNewConstMetric(c.universesDesc, prometheus.GaugeValue, float64(stats.Universes), c.name)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
