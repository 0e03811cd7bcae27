// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flightlib/flight/descriptor"
)

// CURLDescription renders d as an equivalent curl invocation, useful
// when logging or reproducing a request by hand. Header order is
// stable. The Authorization header value is redacted.
func CURLDescription(d *descriptor.Descriptor) string {
	if d == nil {
		return "curl"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s", d.Method)

	keys := make([]string, 0, len(d.Header))
	for k := range d.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range d.Header[k] {
			if strings.EqualFold(k, "Authorization") {
				v = "<redacted>"
			}
			fmt.Fprintf(&b, " \\\n\t-H %q", k+": "+v)
		}
	}
	if len(d.Body) > 0 {
		fmt.Fprintf(&b, " \\\n\t-d %q", string(d.Body))
	}
	fmt.Fprintf(&b, " \\\n\t%q", d.URL)
	return b.String()
}
