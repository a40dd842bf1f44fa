package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds configuration for the Prometheus endpoint.
type Config struct {
	// Addr is the listen address for the /metrics endpoint.
	Addr string `mapstructure:"addr" default:":9090"`
}

var (
	recordsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_records_inserted_total",
		Help: "Number of records inserted, by entity type.",
	}, []string{"entity"})

	recordsUpdated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_records_updated_total",
		Help: "Number of records updated in place, by entity type.",
	}, []string{"entity"})

	recordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_records_skipped_total",
		Help: "Number of records skipped due to validation failures, by entity type.",
	}, []string{"entity"})

	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_runs_total",
		Help: "Number of completed ingestion runs.",
	})

	lastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last completed ingestion run.",
	})
)

// RecordEntity adds one run's counters for a single entity type.
func RecordEntity(entity string, inserted, updated, skipped int) {
	recordsInserted.WithLabelValues(entity).Add(float64(inserted))
	recordsUpdated.WithLabelValues(entity).Add(float64(updated))
	recordsSkipped.WithLabelValues(entity).Add(float64(skipped))
}

// RecordRun marks a completed ingestion run.
func RecordRun() {
	runsTotal.Inc()
	lastRunTimestamp.Set(float64(time.Now().Unix()))
}

// Serve exposes the /metrics endpoint on the configured address.
// It blocks, so callers typically run it in a goroutine.
func Serve(cfg Config) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(cfg.Addr, mux)
}
