// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleAndFile(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "diag.log")

	log, closeFn, err := New(Options{Level: "info", Console: true, Stderr: &stderr, FilePath: path, FileMaxSizeMB: 1})
	require.NoError(t, err)

	log.Named("capture").Infof("acquisition started: run %s", "r1")
	log.Debugf("hidden")
	require.NoError(t, closeFn())

	assert.Contains(t, stderr.String(), "acquisition started: run r1")
	assert.Contains(t, stderr.String(), "capture")
	assert.NotContains(t, stderr.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"acquisition started: run r1"`)
	assert.Contains(t, string(data), `"logger":"capture"`)
}

func TestNoOutputsIsNop(t *testing.T) {
	log, closeFn, err := New(Options{})
	require.NoError(t, err)
	log.Infof("nothing")
	assert.NoError(t, closeFn())
}

func TestBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty", Console: true})
	assert.Error(t, err)
}
