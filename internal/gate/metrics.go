package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла операция Sign целиком
	SignDuration *prometheus.HistogramVec

	// Traffic: общее кол-во запросов на подпись
	SignTotal *prometheus.CounterVec

	// Errors: классификация отказов политики по кодам
	RejectionTotal *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker источника опекунов (0 - ок, 1 - выбило)
	BreakerState *prometheus.GaugeVec

	// Сколько запросов срезал rate limiter
	RateLimited prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — если рег не передан, используем локальный,
	// который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		SignDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultgate_sign_duration_seconds",
			Help:    "Histogram of sign request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"status"}),

		SignTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vaultgate_sign_requests_total",
			Help: "Total number of processed sign requests.",
		}, []string{"actor", "status"}),

		RejectionTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vaultgate_rejections_total",
			Help: "Total number of policy rejections by code.",
		}, []string{"code"}), // коды: ACTOR_NOT_AUTHORIZED, COOLDOWN_VIOLATION и т.д.

		BreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "vaultgate_breaker_state",
			Help: "Current state of the guardian directory circuit breaker (0=closed, 1=open).",
		}, []string{"dependency"}),

		RateLimited: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vaultgate_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		}),
	}
}
