package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReportsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "billing", Name: "reports_total", Help: "Completed report runs",
	})
	ReportFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "billing", Name: "report_failures_total", Help: "Structurally failed report runs",
	})
	RowsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "billing", Name: "rows_total", Help: "Rows included in results",
	})
	RowWarnings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "billing", Name: "row_warnings_total", Help: "Rows excluded with warnings",
	})
	ProcessDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "billing", Name: "process_seconds", Help: "Report processing latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(ReportsProcessed, ReportFailures, RowsProcessed, RowWarnings, ProcessDuration)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveProcess(d time.Duration) { ProcessDuration.Observe(d.Seconds()) }
