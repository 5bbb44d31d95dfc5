// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

// AssumptionFor returns the assumption made about values of unit.
// go test reports no unit metadata, so every unit assumes nothing.
func AssumptionFor(unit string) Assumption {
	return AssumeNothing
}

// Better reports whether higher (+1) or lower (-1) values of unit are
// an improvement, or 0 if unknown.
func Better(unit string) int {
	switch unit {
	case "ns/op", "sec/op":
		return -1
	case "MB/s", "B/s":
		return 1
	case "B/op", "allocs/op":
		return -1
	}
	return 0
}
