// Package metrics records the outcome of one export run in Prometheus
// format. Runs are one-shot, so there is no scrape endpoint: the registry is
// written to a textfile for node_exporter's textfile collector.
//
// Metrics:
//   - crmexport_rows_exported_total: rows written to the output file
//   - crmexport_rows_failed_total: rows lost to skipped batches
//   - crmexport_batches_total: remote batches by status (ok, failed)
//   - crmexport_rpc_calls_total: remote model calls by model and method
//   - crmexport_rpc_errors_total: failed remote model calls by model and method
//   - crmexport_last_run_duration_seconds: wall time of the run
//   - crmexport_last_run_success: 1 when the file was published
//   - crmexport_last_run_timestamp_seconds: completion time of the run
package metrics

import (
	"errors"
	"time"

	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crmexport"

// Run holds the metrics of a single export run. Every series carries a
// constant mode label.
type Run struct {
	registry *prometheus.Registry

	rowsExported prometheus.Counter
	rowsFailed   prometheus.Counter
	batches      *prometheus.CounterVec
	rpcCalls     *prometheus.CounterVec
	rpcErrors    *prometheus.CounterVec
	duration     prometheus.Gauge
	success      prometheus.Gauge
	timestamp    prometheus.Gauge
}

// NewRun creates and registers the metrics for a run in mode.
func NewRun(mode core.Mode) *Run {
	labels := prometheus.Labels{"mode": string(mode)}
	r := &Run{
		registry: prometheus.NewRegistry(),

		rowsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rows_exported_total",
			Help:        "Rows written to the output file",
			ConstLabels: labels,
		}),
		rowsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rows_failed_total",
			Help:        "Rows missing from the output because their batch was skipped",
			ConstLabels: labels,
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "batches_total",
			Help:        "Remote batches processed, by status",
			ConstLabels: labels,
		}, []string{"status"}),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rpc_calls_total",
			Help:        "Remote model calls made",
			ConstLabels: labels,
		}, []string{"model", "method"}),
		rpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rpc_errors_total",
			Help:        "Remote model calls that failed",
			ConstLabels: labels,
		}, []string{"model", "method"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_run_duration_seconds",
			Help:        "Wall time of the last run in seconds",
			ConstLabels: labels,
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_run_success",
			Help:        "1 if the last run published its file, 0 otherwise",
			ConstLabels: labels,
		}),
		timestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the last run finished",
			ConstLabels: labels,
		}),
	}

	r.registry.MustRegister(
		r.rowsExported,
		r.rowsFailed,
		r.batches,
		r.rpcCalls,
		r.rpcErrors,
		r.duration,
		r.success,
		r.timestamp,
	)
	return r
}

// Registry returns the registry holding the run's metrics.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCall counts a remote model call. It matches odoo.CallHook.
func (r *Run) ObserveCall(model, method string, err error) {
	r.rpcCalls.WithLabelValues(model, method).Inc()
	if err != nil {
		r.rpcErrors.WithLabelValues(model, method).Inc()
	}
}

// Record stores the outcome of a finished run. runErr is the error returned
// by core.Run.
func (r *Run) Record(sum *core.Summary, runErr error, finished time.Time) {
	if sum != nil {
		r.rowsExported.Add(float64(sum.RowsExported))
		r.rowsFailed.Add(float64(sum.RowsFailed))
		if sum.BatchesTotal > 0 {
			r.batches.WithLabelValues("ok").Add(float64(sum.BatchesTotal - sum.BatchesFailed))
			r.batches.WithLabelValues("failed").Add(float64(sum.BatchesFailed))
		}
		r.duration.Set(sum.Duration.Seconds())
	}

	if runErr == nil {
		r.success.Set(1)
	} else {
		r.success.Set(0)
	}
	r.timestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry atomically to path.
func (r *Run) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics textfile path is empty")
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
