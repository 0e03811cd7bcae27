// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package flight implements a stateful HTTP request lifecycle engine:
every request moves through an explicit state machine from creation
through adaptation, transport attempts, retries, validation, and
typed response serialization, with progress and metrics collected
along the way.

# Basic usage

Create a Session, create a request from it, attach a response
handler, and read the typed result:

	s := flight.NewSession()
	flight.ResponseJSON[User](s.Get("https://api.example.com/user/1").Validate(), nil,
		func(resp flight.DataResponse[User]) {
			if resp.Err != nil {
				log.Fatal(resp.Err)
			}
			fmt.Println(resp.Value.Name)
		})

On a session created with NewSession, attaching the first response
handler resumes the request automatically. On a zero-value Session,
call Resume explicitly.

# Requests

A request is created from a descriptor factory and runs it once per
transport attempt, so retries always start from a fresh descriptor.
Requests come in three variants: DataRequest buffers the response body
in memory, DownloadRequest streams it to a file, and UploadRequest
sends a caller-supplied payload. All three share one lifecycle:
Resume, Suspend, and Cancel move the request through its state
machine, and illegal transitions are silent no-ops.

Cancellation is absorbing but still orderly: a cancelled request runs
its serializer pipeline and cleanup handlers to completion, so every
attached completion observes exactly one result.

# Interceptors

An Interceptor combines an Adapter chain, which may rewrite each
outgoing descriptor, and a Retrier chain, which decides whether a
failed attempt is re-attempted. Compose chains with NewInterceptor and
attach them session-wide through Session.Interceptor, or per request
with WithInterceptor, which fully overrides the session's interceptor.
The retry subpackage provides ready-made policies.

# Validation and serialization

Validators inspect the final response before any serializer runs;
every registered validator runs, and the first failure becomes the
request error. Serializers then deliver independently typed results:
attach any number of response handlers to one request, and each
receives its own outcome even when another handler's serializer fails.

# Transport

The Session hands descriptors to a TransportExecutor. The default,
HTTPExecutor, runs each attempt as a net/http round trip over a pooled
TLS 1.2+ client built by the transport subpackage, with optional
certificate pinning from the trust subpackage. Replace the executor to
fake the wire in tests or to bridge another transport.

Redirects and response caching hook in at the session or, overriding
it, the request: a RedirectHandler decides whether and where a
redirect is followed, and a CachedResponseHandler filters successful
responses before they are stored into the session's ResponseCache.
At most one of each may be installed per request.
*/
package flight
