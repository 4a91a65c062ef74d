package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/slicerun/internal/domain"
)

// Metrics — Prometheus метрики run. Реализует lifecycle.Observer.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runsActive    prometheus.Gauge
	runDuration   prometheus.Histogram
	stepsTotal    *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	lastRunStatus *prometheus.GaugeVec
}

// NewMetrics создаёт метрики в собственном registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slicerun_runs_total",
			Help: "Total lifecycle runs by final status",
		}, []string{"status"}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slicerun_runs_active",
			Help: "Lifecycle runs currently in progress",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "slicerun_run_duration_seconds",
			Help:    "Duration of lifecycle runs",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slicerun_steps_total",
			Help: "Total lifecycle steps by step and status",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slicerun_step_duration_seconds",
			Help:    "Duration of lifecycle steps",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 600, 1200},
		}, []string{"step"}),
		lastRunStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slicerun_last_run_success",
			Help: "1 if the last run of the systest succeeded, 0 otherwise",
		}, []string{"systest"}),
	}

	reg.MustRegister(
		m.runsTotal,
		m.runsActive,
		m.runDuration,
		m.stepsTotal,
		m.stepDuration,
		m.lastRunStatus,
	)

	return m
}

// Registry возвращает registry с метриками (для тестов и push).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает HTTP handler для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted реализует lifecycle.Observer.
func (m *Metrics) RunStarted(_ context.Context, _ *domain.Run) {
	m.runsActive.Inc()
}

// StepStarted реализует lifecycle.Observer.
func (m *Metrics) StepStarted(context.Context, *domain.Run, domain.Step) {}

// StepFinished реализует lifecycle.Observer.
func (m *Metrics) StepFinished(_ context.Context, _ *domain.Run, rec domain.StepRecord, _ error) {
	m.stepsTotal.WithLabelValues(string(rec.Step), string(rec.Status)).Inc()
	m.stepDuration.WithLabelValues(string(rec.Step)).Observe(rec.Duration().Seconds())
}

// RunFinished реализует lifecycle.Observer.
func (m *Metrics) RunFinished(_ context.Context, run *domain.Run) {
	m.runsActive.Dec()
	m.runsTotal.WithLabelValues(string(run.Status)).Inc()
	m.runDuration.Observe(run.Duration().Seconds())

	success := 0.0
	if run.Status == domain.RunStatusSucceeded {
		success = 1
	}
	m.lastRunStatus.WithLabelValues(run.SysTestName).Set(success)
}

// Serve отдаёт /metrics и /healthz на addr до отмены ctx.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
