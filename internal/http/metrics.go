package http

import (
	"database/sql"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/idbroker/internal/metrics"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
)

// MetricsConfig agrupa lo necesario para exponer /metrics.
type MetricsConfig struct {
	Registry prometheus.Registerer
	// DB opcional: si está, se exponen las stats del pool SQL.
	DB func() *sql.DB
}

// RegisterMetrics registra las métricas HTTP, las del registry/pipeline y,
// si hay DB, el collector del pool. Devuelve el handler para /metrics.
func RegisterMetrics(cfg MetricsConfig) (http.Handler, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idbroker_http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idbroker_http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "idbroker_http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		for _, c := range []prometheus.Collector{httpRequestsTotal, httpRequestDuration, httpInflight} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}
	if err := metrics.Register(registry); err != nil {
		return nil, err
	}

	if cfg.DB != nil {
		if err := registerCollector(registry, newDBPoolCollector(cfg.DB)); err != nil {
			return nil, err
		}
	}

	if g, ok := registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
func WithMetrics(next http.Handler) http.Handler {
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// registerCollector ignora duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// dbPoolCollector expone gauges del pool de database/sql.
type dbPoolCollector struct {
	db func() *sql.DB

	openDesc  *prometheus.Desc
	inUseDesc *prometheus.Desc
	idleDesc  *prometheus.Desc
	waitDesc  *prometheus.Desc
}

func newDBPoolCollector(db func() *sql.DB) *dbPoolCollector {
	return &dbPoolCollector{
		db:        db,
		openDesc:  prometheus.NewDesc("idbroker_db_open_connections", "Conexiones abiertas del pool", nil, nil),
		inUseDesc: prometheus.NewDesc("idbroker_db_in_use_connections", "Conexiones en uso", nil, nil),
		idleDesc:  prometheus.NewDesc("idbroker_db_idle_connections", "Conexiones inactivas", nil, nil),
		waitDesc:  prometheus.NewDesc("idbroker_db_wait_count_total", "Esperas por una conexión libre", nil, nil),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openDesc
	ch <- c.inUseDesc
	ch <- c.idleDesc
	ch <- c.waitDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	db := c.db()
	if db == nil {
		return
	}
	s := db.Stats()
	ch <- prometheus.MustNewConstMetric(c.openDesc, prometheus.GaugeValue, float64(s.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUseDesc, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.waitDesc, prometheus.CounterValue, float64(s.WaitCount))
}

var (
	uuidSegmentRE = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
)

// normalizePath reemplaza segmentos dinámicos para acotar la cardinalidad.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if uuidSegmentRE.MatchString(seg) || hexSegmentRE.MatchString(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}
