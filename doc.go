// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchprof holds the types shared by every stage of the
// benchmark profiling pipeline: the profile kinds a benchmark run can
// produce and the error classes the stages report.
//
// The stages themselves live in subpackages:
//
//	storage   on-disk artifact layout under bench/<tag>
//	bench     go test command construction and the run stage
//	convert   binary dumps to ranked listings and images
//	extract   listing parsing, filtering and per-function listings
//	analysis  forwarding filtered listings to a chat model
//	pipeline  sequencing of the above per benchmark
//
// The prof command in cmd/prof drives them.
package benchprof
