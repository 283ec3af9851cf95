// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Segments lists the files of a rotated log, oldest first, ending with the
// active file. Only files that exist are returned.
func Segments(activePath string) ([]string, error) {
	dir := filepath.Dir(activePath)
	base := filepath.Base(activePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("datalog: list %s: %w", dir, err)
	}

	type backup struct {
		n    int
		path string
	}
	var backups []backup
	active := ""
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == base {
			active = filepath.Join(dir, name)
			continue
		}
		suffix, ok := strings.CutPrefix(name, base+".")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 {
			continue
		}
		backups = append(backups, backup{n: n, path: filepath.Join(dir, name)})
	}

	// Higher backup numbers are older.
	sort.Slice(backups, func(i, j int) bool { return backups[i].n > backups[j].n })

	out := make([]string, 0, len(backups)+1)
	for _, b := range backups {
		out = append(out, b.path)
	}
	if active != "" {
		out = append(out, active)
	}
	return out, nil
}
