// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package descriptor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var template, _ = http.NewRequest("GET", "", nil)

// A Descriptor is the fully-specified representation of an outgoing
// HTTP request prior to transport: method, URL, headers, and a
// pre-buffered body.
//
// A single logical request may send the same Descriptor more than once
// (on retry), or may send several Descriptors over its lifetime (one
// per adaptation). Because the body is fully buffered into a []byte,
// a Descriptor can always be replayed; the stream-oriented features of
// the lower-level http.Request (trailers, one-shot body readers) are
// deliberately not supported.
//
// The zero value is not usable; construct Descriptors with New.
type Descriptor struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent.
	//
	// For further details, see the documentation of Request.Header in
	// the net/http package.
	Header http.Header

	// Body is the pre-buffered request body to be sent. A nil or empty
	// body indicates no request body should be sent, for example on a
	// GET or DELETE request.
	Body []byte

	// Close stipulates whether to close the connection after sending
	// the request and reading the response, preventing re-use of TCP
	// connections between attempts to the same host.
	Close bool

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host will be sent. Host may contain an international
	// domain name.
	Host string
}

// A Factory produces the Descriptor for a logical request. It is
// invoked once per transport attempt, so that construction errors
// surface through the request's result rather than at call time, and
// retries always work from a fresh Descriptor.
type Factory func() (*Descriptor, error)

// New returns a new Descriptor given a method, URL, and optional body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered into a []byte. If body is an
// io.ReadCloser, it is closed after buffering.
func New(method, url string, body interface{}) (*Descriptor, error) {
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("flight/descriptor: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Clone returns a deep-enough copy of d for safe mutation by an
// adapter: the URL and Header are copied, while the body bytes are
// shared (adapters replace the Body field rather than writing into it).
func (d *Descriptor) Clone() *Descriptor {
	d2 := new(Descriptor)
	*d2 = *d
	if d.URL != nil {
		u := *d.URL
		d2.URL = &u
	}
	d2.Header = d.Header.Clone()
	return d2
}

// AddCookie adds a cookie to the descriptor. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field. That
// means all cookies, if any, are written into the same line, separated
// by semicolons.
//
// AddCookie only sanitizes c's name and value, and does not sanitize
// a Cookie header already present in the descriptor.
func (d *Descriptor) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := d.Header.Get("Cookie"); h != "" {
		d.Header.Set("Cookie", h+"; "+s)
	} else {
		d.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the descriptor's Authorization header to use HTTP
// Basic Authentication with the provided username and password.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
func (d *Descriptor) SetBasicAuth(username, password string) {
	d.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToRequest creates an HTTP request corresponding to the descriptor
// for one transport attempt. The context of the new request is set to
// ctx, which may not be nil.
func (d *Descriptor) ToRequest(ctx context.Context) *http.Request {
	r := template.WithContext(ctx)
	r.Method = d.Method
	r.URL = d.URL
	r.Header = d.Header
	if len(d.Body) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(d.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(d.Body)), nil
		}
		r.ContentLength = int64(len(d.Body))
	}
	r.Close = d.Close
	r.Host = d.Host
	return r
}

// FromRequest converts a lower-level http.Request, such as the request
// a server redirect proposes, back into a Descriptor. The request body
// is not read; callers that care about the body set it afterward.
func FromRequest(r *http.Request) *Descriptor {
	return &Descriptor{
		Method: r.Method,
		URL:    r.URL,
		Header: r.Header,
		Close:  r.Close,
		Host:   r.Host,
	}
}

// basicAuth follows RFC 2617: the client sends the userid and
// password, separated by a single colon, within a base64 encoded
// string in the credentials. It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// validMethod reports whether method is a valid HTTP method per RFC
// 7230: one or more token characters. The token grammar is identical
// to the header field name grammar, so the httpguts check applies. The
// empty string never reaches here because New interprets it as "GET".
func validMethod(method string) bool {
	return httpguts.ValidHeaderFieldName(method)
}

// hasPort reports whether a string of the form "host", "host:port", or
// "[ipv6::address]:port" includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated
// by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
