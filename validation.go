// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"mime"
	"net/http"
	"strings"

	"github.com/flightlib/flight/descriptor"
)

// A Validation inspects a completed response and returns a non-nil
// error to fail the request. Validations run after the final response
// arrives and before any serializer; every registered validation runs
// even after one has failed, but only the first failure is recorded.
type Validation func(d *descriptor.Descriptor, resp *http.Response, body []byte) error

// ValidateStatus returns a Validation accepting the given status
// codes. With no arguments it accepts the default range [200, 300).
func ValidateStatus(acceptable ...int) Validation {
	return func(_ *descriptor.Descriptor, resp *http.Response, _ []byte) error {
		if len(acceptable) == 0 {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			return &ValidationError{
				Reason:     UnacceptableStatusCode,
				StatusCode: resp.StatusCode,
			}
		}
		for _, code := range acceptable {
			if resp.StatusCode == code {
				return nil
			}
		}
		return &ValidationError{
			Reason:        UnacceptableStatusCode,
			StatusCode:    resp.StatusCode,
			AcceptedCodes: acceptable,
		}
	}
}

// ValidateContentType returns a Validation accepting the given MIME
// types. A type of the form "type/*" matches any subtype and "*/*"
// matches anything. With no arguments the acceptable types are taken
// from the request's Accept header; absent that, anything is accepted.
//
// A response with no body, or with a missing Content-Type header when
// wildcard types are acceptable, passes.
func ValidateContentType(acceptable ...string) Validation {
	return func(d *descriptor.Descriptor, resp *http.Response, body []byte) error {
		accepted := acceptable
		if len(accepted) == 0 {
			accepted = acceptFromDescriptor(d)
			if len(accepted) == 0 {
				return nil
			}
		}
		if len(body) == 0 && emptyResponseCode(resp.StatusCode) {
			return nil
		}
		ct := resp.Header.Get("Content-Type")
		if ct == "" {
			for _, a := range accepted {
				if strings.HasPrefix(a, "*") {
					return nil
				}
			}
			return &ValidationError{
				Reason:     UnacceptableContentType,
				StatusCode: resp.StatusCode,
				Accepted:   accepted,
			}
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			mediaType = ct
		}
		for _, a := range accepted {
			if contentTypeMatches(a, mediaType) {
				return nil
			}
		}
		return &ValidationError{
			Reason:      UnacceptableContentType,
			StatusCode:  resp.StatusCode,
			ContentType: mediaType,
			Accepted:    accepted,
		}
	}
}

func acceptFromDescriptor(d *descriptor.Descriptor) []string {
	if d == nil {
		return nil
	}
	raw := d.Header.Get("Accept")
	if raw == "" {
		return nil
	}
	var types []string
	for _, part := range strings.Split(raw, ",") {
		t, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		types = append(types, t)
	}
	return types
}

func contentTypeMatches(acceptable, actual string) bool {
	acceptable = strings.ToLower(strings.TrimSpace(acceptable))
	actual = strings.ToLower(actual)
	if acceptable == "*/*" || acceptable == actual {
		return true
	}
	if t, ok := strings.CutSuffix(acceptable, "/*"); ok {
		at, _, found := strings.Cut(actual, "/")
		return found && at == t
	}
	return false
}

func emptyResponseCode(code int) bool {
	return code == http.StatusNoContent || code == http.StatusResetContent
}

// wrapValidation normalizes an error returned by a custom Validation.
// Engine errors pass through unchanged so a validation may return a
// fully specified ValidationError itself.
func wrapValidation(err error) error {
	if err == nil || isEngineError(err) {
		return err
	}
	return &ValidationError{Reason: CustomValidation, Cause: err}
}
