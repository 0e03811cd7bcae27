// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for choosing the deadline of each
// attempt a request makes, including retry attempts. The Policy
// interface is consulted once per attempt with the timeouts already
// used, so adaptive policies can grow the deadline as attempts fail.
// Fixed and Adaptive cover the common cases.
package timeout
