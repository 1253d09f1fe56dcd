package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

var (
	registry *prometheus.Registry

	// OpenWeatherMap API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: slow upstream before a timeout shows up.
	WeatherAPIDuration *prometheus.HistogramVec

	// Retry attempts for weather API. High retries = unstable upstream or network.
	WeatherAPIRetriesTotal prometheus.Counter

	// Cache hits served fresh, per query kind.
	CacheHitsTotal *prometheus.CounterVec

	// Cache misses (no entry for key), per query kind.
	CacheMissesTotal *prometheus.CounterVec

	// Stale cache entries served after an upstream failure, per query kind.
	StaleServesTotal *prometheus.CounterVec

	// Cache persistence failures, by operation (get, put, clear).
	CacheErrorsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total calls to the weather API",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Weather API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	WeatherAPIRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherApiRetriesTotal",
			Help: "Total weather API retry attempts",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Fresh cache hits",
		},
		[]string{"kind"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Cache misses",
		},
		[]string{"kind"},
	)
	StaleServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleCacheServesTotal",
			Help: "Stale cache entries served after upstream failure",
		},
		[]string{"kind"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache persistence errors by operation",
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		WeatherAPICallsTotal,
		WeatherAPIDuration,
		WeatherAPIRetriesTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		StaleServesTotal,
		CacheErrorsTotal,
	)
}

// DumpMetrics logs every non-zero counter at debug level. The process is
// one-shot, so there is no scrape endpoint; this is the end-of-run summary
// printed under --debug.
func DumpMetrics(logger *zap.Logger) {
	families, err := registry.Gather()
	if err != nil {
		logger.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := metricValue(m)
			if v == 0 {
				continue
			}
			fields := []zap.Field{zap.Float64("value", v)}
			for _, l := range m.GetLabel() {
				fields = append(fields, zap.String(l.GetName(), l.GetValue()))
			}
			logger.Debug(mf.GetName(), fields...)
		}
	}
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}
