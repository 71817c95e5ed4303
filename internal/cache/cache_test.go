package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/zigwangles/tokydownloader/internal/config"
)

func getCounterVecValue(cv *prometheus.CounterVec, label string) float64 {
	c, err := cv.GetMetricWithLabelValues(label)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestMemoryCache_GetSet(t *testing.T) {
	c, err := New("memory", Options{Size: 4, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New memory cache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "https://example.com/book"); ok {
		t.Fatal("Expected miss on an empty cache")
	}

	c.Set(ctx, "https://example.com/book", []byte("<html>"))
	page, ok := c.Get(ctx, "https://example.com/book")
	if !ok || string(page) != "<html>" {
		t.Fatalf("Expected cached page, got %q (hit=%v)", page, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
}

func TestMemoryCache_Expires(t *testing.T) {
	c, err := New("memory", Options{Size: 4, TTL: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))
	time.Sleep(150 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Expected entry to expire after its TTL")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("memcached", Options{}); err == nil {
		t.Fatal("Expected error for an unknown provider")
	}
}

func TestProviders(t *testing.T) {
	names := Providers()
	if len(names) != 2 || names[0] != "memory" || names[1] != "redis" {
		t.Errorf("Expected [memory redis], got %v", names)
	}
}

func TestNew_RedisUnreachable(t *testing.T) {
	_, err := New("redis", Options{RedisAddress: "localhost:59999"})
	if err == nil {
		t.Fatal("Expected error when Redis is not listening")
	}
}

func TestFromConfig_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Provider = "memory"
	cfg.Cache.Size = 2
	cfg.Cache.TTL = "not-a-duration"

	c, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer c.Close()

	c.Set(context.Background(), "a", []byte("1"))
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
}

func TestInstrumented_HitsMissesEvictions(t *testing.T) {
	reg := prometheus.NewRegistry()
	orig := entriesReg
	entriesReg = reg
	t.Cleanup(func() { entriesReg = orig })

	c, err := New("memory", Options{Size: 1, TTL: time.Hour, Group: "test-pages"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	hits := getCounterVecValue(HitsTotal, "test-pages")
	misses := getCounterVecValue(MissesTotal, "test-pages")
	evictions := getCounterVecValue(EvictionsTotal, "test-pages")

	c.Get(ctx, "a")
	c.Set(ctx, "a", []byte("1"))
	c.Get(ctx, "a")
	c.Set(ctx, "b", []byte("2")) // evicts a

	if d := getCounterVecValue(HitsTotal, "test-pages") - hits; d != 1 {
		t.Errorf("Expected 1 hit, got %.0f", d)
	}
	if d := getCounterVecValue(MissesTotal, "test-pages") - misses; d != 1 {
		t.Errorf("Expected 1 miss, got %.0f", d)
	}
	if d := getCounterVecValue(EvictionsTotal, "test-pages") - evictions; d != 1 {
		t.Errorf("Expected 1 eviction, got %.0f", d)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "page_cache_entries" {
			found = true
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 1 {
				t.Errorf("Expected 1 entry in gauge, got %.0f", v)
			}
		}
	}
	if !found {
		t.Error("Expected page_cache_entries gauge to be registered")
	}
}

func TestInstrumented_CloseUnregistersEntries(t *testing.T) {
	reg := prometheus.NewRegistry()
	orig := entriesReg
	entriesReg = reg
	t.Cleanup(func() { entriesReg = orig })

	c, err := New("memory", Options{Group: "test-close"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = c.Close()

	entriesMu.Lock()
	_, registered := entries["test-close"]
	entriesMu.Unlock()
	if registered {
		t.Error("Expected entries gauge to be removed on Close")
	}
}

// Redis tests need a running Redis/Valkey; set REDIS_ADDRESS to enable them.
func newTestRedisCache(t *testing.T, ttl time.Duration) PageCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("Skipping Redis tests: set REDIS_ADDRESS to enable")
	}
	c, err := New("redis", Options{TTL: ttl, RedisAddress: addr, RedisDB: 15})
	if err != nil {
		t.Fatalf("New redis cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_GetSet(t *testing.T) {
	c := newTestRedisCache(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "https://example.com/redis-book", []byte("page"))
	page, ok := c.Get(ctx, "https://example.com/redis-book")
	if !ok || string(page) != "page" {
		t.Fatalf("Expected cached page, got %q (hit=%v)", page, ok)
	}
	if c.Len() < 1 {
		t.Errorf("Expected at least 1 entry, got %d", c.Len())
	}
}

func TestRedisCache_Expires(t *testing.T) {
	c := newTestRedisCache(t, time.Second)
	ctx := context.Background()

	c.Set(ctx, "https://example.com/short-lived", []byte("page"))
	time.Sleep(1500 * time.Millisecond)

	if _, ok := c.Get(ctx, "https://example.com/short-lived"); ok {
		t.Error("Expected page to expire")
	}
}
