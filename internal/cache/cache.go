// Package cache stores fetched book pages so repeated runs against the same
// book do not hit the origin again.
package cache

import "context"

// PageCache maps a page URL to its decoded body.
type PageCache interface {
	// Get returns the cached page and true on a hit
	Get(ctx context.Context, url string) ([]byte, bool)

	// Set stores page under url, replacing any previous entry
	Set(ctx context.Context, url string, page []byte)

	// Len returns the number of cached pages
	Len() int

	// Close releases backend connections
	Close() error
}
