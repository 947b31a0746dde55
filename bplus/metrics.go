package bplus

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters a Tree updates as it runs. A nil *Metrics is
// valid everywhere a *Metrics is accepted: every method is a no-op on a nil
// receiver, so callers that don't care about metrics can pass nil to Open
// instead of wiring up a registry.
type Metrics struct {
	PagesAllocated  prometheus.Counter
	PagesFreed      prometheus.Counter
	FreeListReuses  prometheus.Counter
	Splits          prometheus.Counter
	Lookups         prometheus.Counter
	LookupMisses    prometheus.Counter
}

// NewMetrics builds a Metrics and registers its counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bplus_pages_allocated_total",
			Help: "Pages handed out by the allocator, from growth or the free list.",
		}),
		PagesFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bplus_pages_freed_total",
			Help: "Pages returned to the free list.",
		}),
		FreeListReuses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bplus_free_list_reuses_total",
			Help: "Allocations satisfied from the free list instead of growing the region.",
		}),
		Splits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bplus_splits_total",
			Help: "Leaf and node splits performed during Insert.",
		}),
		Lookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bplus_lookups_total",
			Help: "Calls to Lookup.",
		}),
		LookupMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bplus_lookup_misses_total",
			Help: "Lookup calls for a key not present in the tree.",
		}),
	}
	reg.MustRegister(m.PagesAllocated, m.PagesFreed, m.FreeListReuses, m.Splits, m.Lookups, m.LookupMisses)
	return m
}

func (m *Metrics) incAllocated() {
	if m != nil {
		m.PagesAllocated.Inc()
	}
}

func (m *Metrics) incFreed() {
	if m != nil {
		m.PagesFreed.Inc()
	}
}

func (m *Metrics) incFreeListReuse() {
	if m != nil {
		m.FreeListReuses.Inc()
	}
}

func (m *Metrics) incSplit() {
	if m != nil {
		m.Splits.Inc()
	}
}

func (m *Metrics) incLookup() {
	if m != nil {
		m.Lookups.Inc()
	}
}

func (m *Metrics) incLookupMiss() {
	if m != nil {
		m.LookupMisses.Inc()
	}
}
