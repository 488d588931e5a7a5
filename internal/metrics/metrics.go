package metrics

import (
	"net/http"
	"strconv"

	"grc-risk/internal/scoring"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds a private registry so that tests can build as many as they need.
type Metrics struct {
	registry    *prometheus.Registry
	assessments *prometheus.CounterVec
	deletions   prometheus.Counter
	requests    *prometheus.CounterVec
	stored      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grc_risk_assessments_total",
			Help: "Risk assessments created, by level.",
		}, []string{"level"}),
		deletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grc_risk_deletions_total",
			Help: "Risk records deleted.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grc_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grc_risks_stored",
			Help: "Number of risk records in the store at last observation.",
		}),
	}

	reg.MustRegister(
		m.assessments,
		m.deletions,
		m.requests,
		m.stored,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RiskAssessed(level scoring.Level) {
	m.assessments.WithLabelValues(string(level)).Inc()
}

func (m *Metrics) RiskDeleted() {
	m.deletions.Inc()
}

func (m *Metrics) SetStored(n int) {
	m.stored.Set(float64(n))
}

// Middleware counts requests by matched route so that ids do not explode
// label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
