package client

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/zigwangles/tokydownloader/internal/cache"
	"github.com/zigwangles/tokydownloader/internal/config"
	"github.com/zigwangles/tokydownloader/internal/models"
	"github.com/zigwangles/tokydownloader/internal/parser"
)

// Client fetches book pages and turns them into chapter lists
type Client interface {
	// FetchPage returns the decoded UTF-8 text of the page at pageURL
	FetchPage(ctx context.Context, pageURL string) (string, error)

	// FetchChapters fetches pageURL and extracts its chapters
	FetchChapters(ctx context.Context, pageURL string) ([]models.Chapter, error)

	// Close releases the page cache
	Close() error
}

type client struct {
	httpClient *http.Client
	cache      cache.PageCache
	extractor  parser.ChapterExtractor
	retries    int
}

// NewClient creates a page client with proxy, compression, retries and the
// configured page cache. A cache that cannot be created is logged and skipped.
func NewClient(cfg *config.Config) Client {
	logger := config.GetLogger()

	pageCache, err := cache.FromConfig(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.Cache.Provider).Msg("Page cache unavailable, continuing without it")
		pageCache = nil
	}

	httpClient := &http.Client{
		Timeout:   config.ParseDuration("page_timeout", cfg.PageTimeout, 30*time.Second),
		Transport: newCompressionTransport(newBaseTransport(cfg)),
	}

	retries := cfg.PageRetries
	if retries < 0 {
		retries = 0
	}

	return &client{
		httpClient: httpClient,
		cache:      pageCache,
		extractor:  parser.NewTracksExtractor(cfg.TracksIdentifier),
		retries:    retries,
	}
}

// NewDownloadHTTPClient creates the client used for mirror downloads. It has
// no overall timeout since a chapter may stay paused indefinitely; connect,
// TLS and response header waits are bounded by client_timeout instead.
func NewDownloadHTTPClient(cfg *config.Config) *http.Client {
	timeout := config.ParseDuration("client_timeout", cfg.ClientTimeout, 10*time.Second)

	transport := newBaseTransport(cfg)
	transport.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{Transport: transport}
}

// newBaseTransport clones the default transport and applies the configured proxy.
func newBaseTransport(cfg *config.Config) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return transport
}

// Close releases the page cache, if any.
func (c *client) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}
