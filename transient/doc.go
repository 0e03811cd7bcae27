// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors observed while executing HTTP
// requests as transient or non-transient, and assigns transient errors
// a coarse category (timeout, connectivity, server fault). Retry
// policies use the classification to decide whether another attempt is
// worthwhile.
//
// The package depends only on the standard library, so it can be
// imported on its own without pulling in the rest of the engine.
package transient
