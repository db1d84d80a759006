// Package metrics exposes run counters over the Prometheus client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the sync counters on a private registry so tests can
// create as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	RecordsParsed   prometheus.Counter
	Duplicates      prometheus.Counter
	AlreadyPresent  prometheus.Counter
	Created         prometheus.Counter
	CreateFailures  prometheus.Counter
	RetriesReplayed prometheus.Counter
	Runs            prometheus.Counter
	RunFailures     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icsync",
			Name:      name,
			Help:      help,
		})
		m.registry.MustRegister(c)
		return c
	}

	m.RecordsParsed = counter("records_parsed_total", "Event records extracted from the export")
	m.Duplicates = counter("duplicates_total", "Records suppressed as duplicates within one export")
	m.AlreadyPresent = counter("already_present_total", "Records skipped because the calendar already has them")
	m.Created = counter("created_total", "Events created in the calendar")
	m.CreateFailures = counter("create_failures_total", "Event creations that failed and went to the ledger")
	m.RetriesReplayed = counter("retries_replayed_total", "Ledger records replayed into a creation pass")
	m.Runs = counter("runs_total", "Sync runs started")
	m.RunFailures = counter("run_failures_total", "Sync runs that ended in error")

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
