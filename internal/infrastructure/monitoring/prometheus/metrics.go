// Package prometheus exposes run statistics for the extraction pipeline.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds metric naming options.
type Config struct {
	Namespace           string
	EnableGoMetrics     bool
	EnableProcStats     bool
	DurationBuckets     []float64
	CollaboratorBuckets []float64
}

// Metrics holds every metric the pipeline records.  All fields are safe for
// concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	SentencesTotal       *prometheus.CounterVec
	MeasurementsTotal    *prometheus.CounterVec
	SkipsTotal           *prometheus.CounterVec
	ExtractionDuration   prometheus.Histogram
	CollaboratorDuration *prometheus.HistogramVec
	CacheAccessTotal     *prometheus.CounterVec
	PublishTotal         *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	ActiveWorkers        prometheus.Gauge
}

// New registers all pipeline metrics on a fresh registry.
func New(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "measurelink"
	}
	if cfg.DurationBuckets == nil {
		cfg.DurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	}
	if cfg.CollaboratorBuckets == nil {
		cfg.CollaboratorBuckets = []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 30}
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcStats {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	m := &Metrics{registry: registry}
	factory := metricFactory{registry: registry, namespace: cfg.Namespace}

	m.SentencesTotal = factory.counterVec("sentences_total",
		"Sentences processed, by outcome (ok, parse_failure)", "outcome")
	m.MeasurementsTotal = factory.counterVec("measurements_total",
		"Measurements emitted, by kind (value, interval, quantified)", "kind")
	m.SkipsTotal = factory.counterVec("measurement_skips_total",
		"Measurements skipped before emission, by error code", "code")
	m.ExtractionDuration = factory.histogram("extraction_duration_seconds",
		"End-to-end duration of one Extract call", cfg.DurationBuckets)
	m.CollaboratorDuration = factory.histogramVec("collaborator_request_duration_seconds",
		"Duration of annotator and detector calls", cfg.CollaboratorBuckets, "collaborator", "status")
	m.CacheAccessTotal = factory.counterVec("cache_access_total",
		"Cache lookups around collaborator calls, by result (hit, miss)", "collaborator", "result")
	m.PublishTotal = factory.counterVec("publish_total",
		"Extraction events published to the message bus, by outcome", "outcome")
	m.HTTPRequestsTotal = factory.counterVec("http_requests_total",
		"HTTP requests, by method, path and status code", "method", "path", "status")
	m.HTTPRequestDuration = factory.histogramVec("http_request_duration_seconds",
		"HTTP request duration", cfg.DurationBuckets, "method", "path")
	m.ActiveWorkers = factory.gauge("active_workers",
		"Sentence workers currently running")

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveCollaborator records one annotator or detector round trip.
func (m *Metrics) ObserveCollaborator(name string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CollaboratorDuration.WithLabelValues(name, status).Observe(elapsed.Seconds())
}

// RecordCacheAccess records one cache lookup outcome.
func (m *Metrics) RecordCacheAccess(collaborator string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccessTotal.WithLabelValues(collaborator, result).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

type metricFactory struct {
	registry  *prometheus.Registry
	namespace string
}

func (f metricFactory) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: f.namespace, Name: name, Help: help,
	}, labels)
	f.registry.MustRegister(vec)
	return vec
}

func (f metricFactory) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: f.namespace, Name: name, Help: help,
	})
	f.registry.MustRegister(g)
	return g
}

func (f metricFactory) histogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: f.namespace, Name: name, Help: help, Buckets: buckets,
	})
	f.registry.MustRegister(h)
	return h
}

func (f metricFactory) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: f.namespace, Name: name, Help: help, Buckets: buckets,
	}, labels)
	f.registry.MustRegister(vec)
	return vec
}
