// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package trust provides pluggable server trust evaluation for the
// flight request engine. A Manager maps hostnames to Evaluators which
// inspect the negotiated TLS connection state after the standard
// chain verification has run.
package trust

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
)

// An Evaluator decides whether the TLS session negotiated with a host
// is acceptable. Evaluators run after crypto/tls has performed its
// standard verification, so they typically add constraints (such as
// key pinning) rather than relax them; use Disabled together with an
// InsecureSkipVerify transport to relax verification.
//
// Implementations of Evaluator must be safe for concurrent use by
// multiple goroutines.
type Evaluator interface {
	Evaluate(host string, state *tls.ConnectionState) error
}

// The EvaluatorFunc type is an adapter to allow the use of ordinary
// functions as evaluators.
type EvaluatorFunc func(host string, state *tls.ConnectionState) error

// Evaluate calls f(host, state).
func (f EvaluatorFunc) Evaluate(host string, state *tls.ConnectionState) error {
	return f(host, state)
}

// Default accepts any connection whose certificate chain passed the
// standard crypto/tls verification, and rejects connections with no
// TLS state or no peer certificates.
var Default Evaluator = EvaluatorFunc(func(host string, state *tls.ConnectionState) error {
	if state == nil {
		return fmt.Errorf("flight/trust: no TLS state for host %q", host)
	}
	if len(state.PeerCertificates) == 0 {
		return fmt.Errorf("flight/trust: no peer certificates for host %q", host)
	}
	return nil
})

// Disabled accepts every connection without inspection. Use it for
// hosts (such as local test servers) that must bypass evaluation.
var Disabled Evaluator = EvaluatorFunc(func(string, *tls.ConnectionState) error {
	return nil
})

// PinnedKeys returns an evaluator that requires at least one
// certificate in the peer chain to carry a public key whose SHA-256
// SPKI digest appears in pins. Each pin is the 32-byte digest of the
// certificate's SubjectPublicKeyInfo.
//
// Pin against intermediate or root keys, not leaves, if the server
// rotates leaf certificates frequently.
func PinnedKeys(pins ...[32]byte) Evaluator {
	pinned := make(map[[32]byte]bool, len(pins))
	for _, p := range pins {
		pinned[p] = true
	}
	return EvaluatorFunc(func(host string, state *tls.ConnectionState) error {
		if state == nil || len(state.PeerCertificates) == 0 {
			return fmt.Errorf("flight/trust: no peer certificates for host %q", host)
		}
		for _, cert := range state.PeerCertificates {
			if pinned[PinCertificate(cert)] {
				return nil
			}
		}
		return fmt.Errorf("flight/trust: no pinned public key in chain for host %q", host)
	})
}

// PinCertificate computes the SHA-256 SPKI digest of cert for use with
// PinnedKeys.
func PinCertificate(cert *x509.Certificate) [32]byte {
	return sha256.Sum256(cert.RawSubjectPublicKeyInfo)
}

// PinString renders a pin digest as lowercase hex, which is how pins
// are usually stored in configuration.
func PinString(pin [32]byte) string {
	return hex.EncodeToString(pin[:])
}

// A Manager maps hostnames to evaluators. Hosts without an entry fall
// back to DefaultEvaluator when set, and are otherwise not evaluated
// at all (the standard crypto/tls verification still applies).
type Manager struct {
	evaluators map[string]Evaluator

	// DefaultEvaluator, if non-nil, evaluates hosts with no explicit
	// entry.
	DefaultEvaluator Evaluator
}

// NewManager returns a Manager with per-host evaluators. The map keys
// are bare hostnames without port.
func NewManager(evaluators map[string]Evaluator) *Manager {
	m := &Manager{evaluators: make(map[string]Evaluator, len(evaluators))}
	for h, e := range evaluators {
		m.evaluators[h] = e
	}
	return m
}

// Evaluator returns the evaluator responsible for host, or nil when
// the host is not subject to evaluation.
func (m *Manager) Evaluator(host string) Evaluator {
	if m == nil {
		return nil
	}
	if e, ok := m.evaluators[host]; ok {
		return e
	}
	return m.DefaultEvaluator
}

// Evaluate runs the evaluator responsible for host, if any.
func (m *Manager) Evaluate(host string, state *tls.ConnectionState) error {
	e := m.Evaluator(host)
	if e == nil {
		return nil
	}
	return e.Evaluate(host, state)
}
