// Package metrics собирает метрики Prometheus сервиса: HTTP-запросы,
// результаты операций с аккаунтами и открытия аватаров.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "focus_backend"

// Metrics содержит собственный реестр и все метрики сервиса.
type Metrics struct {
	registry          *prometheus.Registry
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	accountOperations *prometheus.CounterVec
	avatarUnlocks     *prometheus.CounterVec
}

// New создаёт реестр, регистрирует стандартные коллекторы Go и метрики сервиса.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		accountOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_operations_total",
				Help:      "Account operations by name and result",
			},
			[]string{"operation", "result"},
		),
		avatarUnlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "avatar_unlocks_total",
				Help:      "Avatar reassignments after focus sessions by avatar name",
			},
			[]string{"avatar"},
		),
	}

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.accountOperations, m.avatarUnlocks)
	return m
}

// Registry возвращает реестр, например для тестов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation учитывает результат операции с аккаунтом ("ok" или вид ошибки).
func (m *Metrics) ObserveOperation(operation, result string) {
	m.accountOperations.WithLabelValues(operation, result).Inc()
}

// AvatarUnlocked учитывает назначение пользователю нового аватара.
func (m *Metrics) AvatarUnlocked(avatar string) {
	m.avatarUnlocks.WithLabelValues(avatar).Inc()
}

// Middleware считает запросы и их длительность. Маршрут берётся из шаблона chi,
// чтобы идентификаторы в пути не раздували число рядов.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
