package solr

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type requestMetrics struct {
	duration           *prometheus.HistogramVec
	resolutionFailures prometheus.Counter
}

func newRequestMetrics(reg prometheus.Registerer) (*requestMetrics, error) {
	m := &requestMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solr_client_request_duration_seconds",
			Help:    "Duration of requests sent to solr.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "handler", "status"}),
		resolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solr_client_host_resolution_failures_total",
			Help: "Requests that failed before sending because no node could be resolved.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	duration, err := register(reg, m.duration)
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, m.resolutionFailures)
	if err != nil {
		return nil, err
	}
	m.duration, m.resolutionFailures = duration.(*prometheus.HistogramVec), failures.(prometheus.Counter)
	return m, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, errors.Wrap(err, "registering solr metrics")
	}
	return c, nil
}

func (m *requestMetrics) observe(method string, handler string, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(method, handler, status).Observe(d.Seconds())
}

func (m *requestMetrics) resolutionFailed() {
	if m == nil {
		return
	}
	m.resolutionFailures.Inc()
}
