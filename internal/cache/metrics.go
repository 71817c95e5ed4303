package cache

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache metrics, labelled by Options.Group
var (
	HitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_cache_hits_total",
			Help: "Total number of page cache hits.",
		},
		[]string{"cache"},
	)

	MissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_cache_misses_total",
			Help: "Total number of page cache misses.",
		},
		[]string{"cache"},
	)

	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_cache_evictions_total",
			Help: "Total number of pages evicted from the cache.",
		},
		[]string{"cache"},
	)
)

func init() {
	prometheus.MustRegister(HitsTotal, MissesTotal, EvictionsTotal)
}

var (
	entriesMu sync.Mutex
	entries   = make(map[string]prometheus.Collector)
	// entriesReg is swapped for an isolated registry in tests
	entriesReg prometheus.Registerer = prometheus.DefaultRegisterer
)

// registerEntries exposes the cache size as a gauge read at scrape time.
// A previous gauge for the same group is replaced.
func registerEntries(group string, size func() int) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "page_cache_entries",
		Help:        "Current number of pages in the cache.",
		ConstLabels: prometheus.Labels{"cache": group},
	}, func() float64 { return float64(size()) })

	entriesMu.Lock()
	defer entriesMu.Unlock()
	if old, ok := entries[group]; ok {
		entriesReg.Unregister(old)
	}
	entries[group] = gauge
	_ = entriesReg.Register(gauge)
}

func unregisterEntries(group string) {
	entriesMu.Lock()
	defer entriesMu.Unlock()
	if c, ok := entries[group]; ok {
		entriesReg.Unregister(c)
		delete(entries, group)
	}
}

// instrumented counts hits and misses of the wrapped cache
type instrumented struct {
	inner PageCache
	group string
}

func newInstrumented(inner PageCache, group string) *instrumented {
	registerEntries(group, inner.Len)
	return &instrumented{inner: inner, group: group}
}

func (c *instrumented) Get(ctx context.Context, url string) ([]byte, bool) {
	page, ok := c.inner.Get(ctx, url)
	if ok {
		HitsTotal.WithLabelValues(c.group).Inc()
	} else {
		MissesTotal.WithLabelValues(c.group).Inc()
	}
	return page, ok
}

func (c *instrumented) Set(ctx context.Context, url string, page []byte) {
	c.inner.Set(ctx, url, page)
}

func (c *instrumented) Len() int {
	return c.inner.Len()
}

func (c *instrumented) Close() error {
	unregisterEntries(c.group)
	return c.inner.Close()
}
