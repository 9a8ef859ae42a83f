// Package metrics exposes service counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pantrymatch/backend/internal/domain"
)

const namespace = "pantrymatch"

// Recorder owns a private registry so tests and multiple servers never collide
// on the global one.
type Recorder struct {
	registry        *prometheus.Registry
	mergeOutcomes   *prometheus.CounterVec
	matchesServed   *prometheus.CounterVec
	taxonomyReloads *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// NewRecorder creates and registers all collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		mergeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_outcomes_total",
			Help:      "Pantry add/merge results by outcome and resolution.",
		}, []string{"outcome", "resolution"}),
		matchesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_served_total",
			Help:      "Recipe match results served, by source (cache or computed).",
		}, []string{"source"}),
		taxonomyReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "taxonomy_reloads_total",
			Help:      "Taxonomy file reload attempts by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
	}

	r.registry.MustRegister(
		r.mergeOutcomes,
		r.matchesServed,
		r.taxonomyReloads,
		r.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// MergeOutcome counts one add/merge result
func (r *Recorder) MergeOutcome(outcome domain.AddOutcome, resolution domain.Resolution) {
	res := string(resolution)
	if res == "" {
		res = "none"
	}
	r.mergeOutcomes.WithLabelValues(string(outcome), res).Inc()
}

// MatchServed counts one match result
func (r *Recorder) MatchServed(source string) {
	r.matchesServed.WithLabelValues(source).Inc()
}

// TaxonomyReload counts one reload attempt
func (r *Recorder) TaxonomyReload(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	r.taxonomyReloads.WithLabelValues(result).Inc()
}

// HTTPRequest counts one served request
func (r *Recorder) HTTPRequest(method, route string, status int) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
