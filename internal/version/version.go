// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package version holds build information, set with -ldflags:
//
//	go build -ldflags "-X github.com/relabs-tech/headtrack_logger/internal/version.GitSHA=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	// Version is written into every data log header.
	Version   = "1.0"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String describes the build in one line.
func String() string {
	return fmt.Sprintf("%s (git %s, built %s)", Version, GitSHA, BuildTime)
}
