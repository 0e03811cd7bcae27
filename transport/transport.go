// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transport builds the lower-level http.Client consumed by the
// flight engine's default transport executor: TLS 1.2+, connection
// pooling, dial timeouts, and User-Agent injection. The engine treats
// the result as a black box; anything implementing the engine's
// HTTPDoer seam can replace it.
package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Config configures the pooled HTTP transport.
type Config struct {
	// DialTimeout bounds establishing a new TCP connection.
	// Default: 10s. Must be > 0.
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive interval for established
	// connections. Default: 30s.
	KeepAlive time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake. Default: 10s.
	TLSHandshakeTimeout time.Duration

	// IdleConnTimeout is how long idle pooled connections are kept
	// before being closed. Default: 90s.
	IdleConnTimeout time.Duration

	// MaxIdleConns and MaxIdleConnsPerHost size the connection pool.
	// Defaults: 100 and 10.
	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// UserAgent, if non-empty, is set on outgoing requests that do not
	// already carry a User-Agent header.
	UserAgent string

	// TLSClientConfig, if non-nil, replaces the default TLS
	// configuration (1.2 minimum, 1.3 preferred).
	TLSClientConfig *tls.Config

	// DisableKeepAlives turns off connection re-use entirely.
	DisableKeepAlives bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}
}

// Validate checks whether the configuration is usable.
func (c *Config) Validate() error {
	if c.DialTimeout <= 0 {
		return fmt.Errorf("flight/transport: dial timeout must be > 0, got %v", c.DialTimeout)
	}
	if c.IdleConnTimeout < 0 {
		return fmt.Errorf("flight/transport: idle conn timeout must be >= 0, got %v", c.IdleConnTimeout)
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("flight/transport: pool sizes must be >= 0")
	}
	return nil
}

// New creates an http.Client from cfg. The client has no overall
// request timeout: per-attempt deadlines are the engine's concern and
// arrive through the request context.
func New(cfg Config) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsConfig := cfg.TLSClientConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		}
	}

	base := &http.Transport{
		TLSClientConfig:     tlsConfig,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableKeepAlives:   cfg.DisableKeepAlives,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	var rt http.RoundTripper = base
	if cfg.UserAgent != "" {
		rt = &userAgentTransport{base: base, userAgent: cfg.UserAgent}
	}

	return &http.Client{Transport: rt}, nil
}

// userAgentTransport sets a default User-Agent on requests that do not
// already carry one.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

func (t *userAgentTransport) CloseIdleConnections() {
	type idleCloser interface{ CloseIdleConnections() }
	if ic, ok := t.base.(idleCloser); ok {
		ic.CloseIdleConnections()
	}
}
