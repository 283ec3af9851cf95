// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package shell provides the operator surfaces that can end a capture.
package shell

// Headless never asks to stop; the capture ends on an interrupt signal or
// a source failure.
type Headless struct{}

func (Headless) ShouldStop() bool { return false }
