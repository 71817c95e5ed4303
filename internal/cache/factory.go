package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zigwangles/tokydownloader/internal/config"
)

// Options holds what a provider needs to build a cache
type Options struct {
	Size int
	TTL  time.Duration

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Group labels the cache metrics. Empty disables instrumentation.
	Group string

	onEvict func()
}

// Provider builds a PageCache from Options
type Provider func(opts Options) (PageCache, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register makes a provider available under name. It panics on duplicates.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("cache: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	providers[name] = p
}

// New creates a cache with the named provider. A non-empty Group wraps it
// with hit, miss and eviction metrics.
func New(name string, opts Options) (PageCache, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, Providers())
	}
	if opts.Size <= 0 {
		opts.Size = 32
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}

	if opts.Group == "" {
		return p(opts)
	}

	group := opts.Group
	opts.onEvict = func() { EvictionsTotal.WithLabelValues(group).Inc() }

	inner, err := p(opts)
	if err != nil {
		return nil, err
	}
	return newInstrumented(inner, group), nil
}

// FromConfig builds the page cache described by the cache.* config keys.
func FromConfig(cfg *config.Config) (PageCache, error) {
	return New(cfg.Cache.Provider, Options{
		Size:          cfg.Cache.Size,
		TTL:           config.ParseDuration("cache.ttl", cfg.Cache.TTL, time.Hour),
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Group:         "pages",
	})
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
