package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

type memoryCache struct {
	pages *lru.LRU[string, []byte]
}

func newMemoryCache(opts Options) (PageCache, error) {
	var onEvict lru.EvictCallback[string, []byte]
	if opts.onEvict != nil {
		onEvict = func(string, []byte) { opts.onEvict() }
	}
	return &memoryCache{
		pages: lru.NewLRU[string, []byte](opts.Size, onEvict, opts.TTL),
	}, nil
}

func (m *memoryCache) Get(_ context.Context, url string) ([]byte, bool) {
	return m.pages.Get(url)
}

func (m *memoryCache) Set(_ context.Context, url string, page []byte) {
	m.pages.Add(url, page)
}

func (m *memoryCache) Len() int {
	return m.pages.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
