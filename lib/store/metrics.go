package store

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

type storeMetrics struct {
	inserts   *metrics.Counter
	updates   *metrics.Counter
	removes   *metrics.Counter
	saves     *metrics.Counter
	saveFails *metrics.Counter
	loads     *metrics.Counter
	saveTime  *metrics.Histogram
}

// newStoreMetrics returns the metrics of kind. Stores of the same kind share
// their metrics.
func newStoreMetrics(kind string) *storeMetrics {
	if kind == "" {
		kind = "unnamed"
	}
	name := func(metric string) string {
		return fmt.Sprintf(`qmx_store_%s{kind=%q}`, metric, kind)
	}
	return &storeMetrics{
		inserts:   metrics.GetOrCreateCounter(name("inserts_total")),
		updates:   metrics.GetOrCreateCounter(name("updates_total")),
		removes:   metrics.GetOrCreateCounter(name("removes_total")),
		saves:     metrics.GetOrCreateCounter(name("saves_total")),
		saveFails: metrics.GetOrCreateCounter(name("save_errors_total")),
		loads:     metrics.GetOrCreateCounter(name("loads_total")),
		saveTime:  metrics.GetOrCreateHistogram(name("save_duration_seconds")),
	}
}

// WriteMetrics writes all store metrics in Prometheus text format to w
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
