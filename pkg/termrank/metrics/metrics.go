// Package metrics defines the Prometheus collectors for pipeline runs and
// exposes an HTTP handler for scraping.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	DocumentsTotal      prometheus.Counter
	TokensAcceptedTotal prometheus.Counter
	SegmentationErrors  prometheus.Counter
	RunsTotal           *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	VocabularySize      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "termrank_documents_processed_total",
				Help: "Documents segmented and filtered.",
			},
		),
		TokensAcceptedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "termrank_tokens_accepted_total",
				Help: "Tokens admitted by the token filter.",
			},
		),
		SegmentationErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "termrank_segmentation_errors_total",
				Help: "Documents the segmenter failed on.",
			},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termrank_runs_total",
				Help: "Pipeline runs by status (ok, error).",
			},
			[]string{"status"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termrank_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"stage"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "termrank_vocabulary_size",
				Help: "Distinct tokens in the last built vocabulary.",
			},
		),
	}

	reg.MustRegister(
		m.DocumentsTotal,
		m.TokensAcceptedTotal,
		m.SegmentationErrors,
		m.RunsTotal,
		m.StageDuration,
		m.VocabularySize,
	)

	return m
}

// DocumentProcessed records one finished document. Safe for concurrent use.
func (m *Metrics) DocumentProcessed(tokens int) {
	m.DocumentsTotal.Inc()
	m.TokensAcceptedTotal.Add(float64(tokens))
}

// SegmentationFailed records one segmentation failure.
func (m *Metrics) SegmentationFailed() {
	m.SegmentationErrors.Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on port in the background and returns its
// shutdown function.
func StartServer(port int, g prometheus.Gatherer) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
