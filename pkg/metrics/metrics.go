package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
)

const namespace = "dcap_ql"

// QuotingMetricsRegistry collects metrics about calls into the quoting library.
type QuotingMetricsRegistry struct {
	log          *zap.Logger
	registry     *prometheus.Registry
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	lastStatus   *prometheus.GaugeVec
}

func NewQuotingMetricsRegistry(logger *zap.Logger) *QuotingMetricsRegistry {
	registry := prometheus.NewRegistry()

	r := &QuotingMetricsRegistry{
		log:      logger,
		registry: registry,
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Number of calls into libsgx_dcap_ql by entry point and returned status.",
		}, []string{"function", "status"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of calls into libsgx_dcap_ql.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"function"}),
		lastStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_status_code",
			Help:      "Raw quote3_error_t code returned by the most recent call of each entry point.",
		}, []string{"function"}),
	}

	registry.MustRegister(
		r.callsTotal,
		r.callDuration,
		r.lastStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveCall records the outcome of one native call.
func (r *QuotingMetricsRegistry) ObserveCall(function string, status quote3.Quote3Error, duration time.Duration) {
	r.callsTotal.WithLabelValues(function, status.String()).Inc()
	r.callDuration.WithLabelValues(function).Observe(duration.Seconds())
	r.lastStatus.WithLabelValues(function).Set(float64(status.Code()))

	if !status.IsSuccess() {
		r.log.Debug("Quoting library returned an error",
			zap.String("function", function),
			zap.String("status", status.String()),
			zap.Uint32("code", status.Code()))
	}
}

// Registry exposes the underlying prometheus registry.
func (r *QuotingMetricsRegistry) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the collected metrics.
func (r *QuotingMetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(r.log),
	})
}
