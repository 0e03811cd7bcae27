// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"net/http"
	"sync"

	"github.com/flightlib/flight/descriptor"
)

// A CachedResponse is one response held by a ResponseCache: the
// response metadata plus its fully accumulated body.
type CachedResponse struct {
	Response *http.Response
	Body     []byte
}

// A CachedResponseHandler decides whether, and in what form, a
// successfully completed response is stored in the session's cache.
// Returning nil prevents caching; returning a modified CachedResponse
// stores that instead of the original. With no handler installed every
// successful response is stored as-is.
//
// Handlers may be invoked concurrently for different requests.
type CachedResponseHandler func(d *descriptor.Descriptor, resp *http.Response, body []byte) *CachedResponse

// A ResponseCache stores responses approved by the cached-response
// handlers, keyed by request URL. The engine only ever stores; lookups
// are for callers.
//
// Implementations must be safe for concurrent use.
type ResponseCache interface {
	Store(key string, c *CachedResponse)
	Cached(key string) *CachedResponse
}

// MemoryCache is an unbounded in-memory ResponseCache.
type MemoryCache struct {
	mu sync.Mutex
	m  map[string]*CachedResponse
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]*CachedResponse)}
}

// Store implements ResponseCache.
func (c *MemoryCache) Store(key string, cached *CachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cached
}

// Cached implements ResponseCache. It returns nil when no response is
// stored under key.
func (c *MemoryCache) Cached(key string) *CachedResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key]
}
