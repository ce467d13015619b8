package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const OutcomeComplete = "complete"

type Metrics struct {
	LinkAttempts           *prometheus.CounterVec
	OrphanedFundingSources prometheus.Counter
	Transfers              *prometheus.CounterVec
	CustomersRegistered    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the service collectors on reg. Use a fresh registry per test.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LinkAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "link_attempts_total",
			Help: "Bank account linking attempts by the step that ended them.",
		}, []string{"step", "outcome"}),
		OrphanedFundingSources: factory.NewCounter(prometheus.CounterOpts{
			Name: "link_orphaned_funding_sources_total",
			Help: "Funding sources created whose bank account record was not persisted.",
		}),
		Transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transfers_total",
			Help: "Transfer requests by outcome.",
		}, []string{"outcome"}),
		CustomersRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customers_registered_total",
			Help: "Customer registrations by outcome.",
		}, []string{"outcome"}),
		gatherer: reg,
	}
}

// NewNop returns metrics bound to a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
