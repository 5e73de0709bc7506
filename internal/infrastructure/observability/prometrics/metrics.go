package prometrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zapshift/zapshift-backend/internal/observability"
)

// instrument spec per metric key; label sets must stay low-cardinality.
type spec struct {
	help    string
	labels  []string
	buckets []float64
}

var counterSpecs = map[observability.MetricKey]spec{
	observability.MUsecaseRequests:   {help: "Total number of use case invocations.", labels: []string{"use_case", "outcome"}},
	observability.MHTTPRequests:      {help: "Total number of HTTP requests.", labels: []string{"method", "route", "status"}},
	observability.MExternalRequests:  {help: "Total number of outbound calls to external peers.", labels: []string{"peer", "endpoint", "outcome"}},
	observability.MNotificationsSent: {help: "Count of receipt notifications sent.", labels: []string{"channel"}},
}

var histogramSpecs = map[observability.MetricKey]spec{
	observability.MUsecaseDuration:         {help: "Duration of use case execution in seconds.", labels: []string{"use_case"}, buckets: prometheus.DefBuckets},
	observability.MHTTPRequestDuration:     {help: "Duration of HTTP requests in seconds.", labels: []string{"method", "route", "status"}, buckets: prometheus.DefBuckets},
	observability.MExternalRequestDuration: {help: "Duration of outbound external calls in seconds.", labels: []string{"peer", "endpoint"}, buckets: prometheus.DefBuckets},
}

// Metrics is a prometheus-backed implementation of observability.Metrics with
// lazily registered vectors, one per known metric key.
type Metrics struct {
	namespace  string
	registerer prometheus.Registerer
	counters   sync.Map // MetricKey -> *prometheus.CounterVec
	histograms sync.Map // MetricKey -> *prometheus.HistogramVec
}

func New(namespace string, registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{namespace: namespace, registerer: registerer}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func (m *Metrics) Counter(name observability.MetricKey) observability.Counter {
	if v, ok := m.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	s, known := counterSpecs[name]
	if !known {
		return observability.NopMetrics().Counter(name)
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: string(name), Help: s.help,
	}, s.labels)
	// Concurrent first use may race the registration; keep the winner.
	if err := m.registerer.Register(cv); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			cv = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			panic(err)
		}
	}
	m.counters.Store(name, cv)
	return &counter{v: cv}
}

func (m *Metrics) Histogram(name observability.MetricKey) observability.Histogram {
	if v, ok := m.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	s, known := histogramSpecs[name]
	if !known {
		return observability.NopMetrics().Histogram(name)
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: string(name), Help: s.help, Buckets: s.buckets,
	}, s.labels)
	if err := m.registerer.Register(hv); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			hv = already.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			panic(err)
		}
	}
	m.histograms.Store(name, hv)
	return &histogram{v: hv}
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}
