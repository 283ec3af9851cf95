// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package runctx

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file written next to the data logs of each run.
const ManifestName = "run.yaml"

// Manifest records how a run was configured and how it ended.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	Session   string    `yaml:"session"`
	Version   string    `yaml:"version"`
	Started   time.Time `yaml:"started"`
	Stopped   time.Time `yaml:"stopped,omitempty"`
	OutputDir string    `yaml:"output_dir"`

	Settings struct {
		Source       string  `yaml:"source"`
		TargetHz     float64 `yaml:"target_hz"`
		MaxFileBytes int64   `yaml:"max_file_bytes"`
		MaxFileCount int     `yaml:"max_file_count"`
	} `yaml:"settings"`

	Stats struct {
		Logged        uint64 `yaml:"logged"`
		Missed        uint64 `yaml:"missed"`
		WriteFailures uint64 `yaml:"write_failures"`
		StopReason    string `yaml:"stop_reason,omitempty"`
	} `yaml:"stats"`
}

// NewManifest starts a manifest for rc.
func NewManifest(rc RunContext, session, version string) *Manifest {
	return &Manifest{
		RunID:     rc.RunID,
		Session:   session,
		Version:   version,
		Started:   rc.Start,
		OutputDir: rc.OutputDir,
	}
}

// Write (re)writes the manifest into dir.
func (m *Manifest) Write(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest stored in dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
