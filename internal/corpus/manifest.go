// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// ManifestName is the file name of the corpus manifest.
const ManifestName = "manifest.json"

// Manifest summarizes a generated corpus. Unlike the fixture files it
// records whether each reference solve converged.
type Manifest struct {
	Seed          uint64   `json:"seed"`
	VecSize       int      `json:"vec_size"`
	Scale         float64  `json:"scale"`
	Tolerance     float64  `json:"tolerance"`
	MaxIterations int      `json:"max_iterations"`
	Fixtures      []Record `json:"fixtures"`
}

// Unconverged returns the records whose reference solve hit the iteration
// limit.
func (m *Manifest) Unconverged() []Record {
	var out []Record
	for _, r := range m.Fixtures {
		if !r.Converged {
			out = append(out, r)
		}
	}
	return out
}

// WriteManifest writes m to dir/manifest.json.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: encode manifest: %w", err)
	}
	data = append(data, '\n')
	path := filepath.Join(dir, ManifestName)
	_, err = os.Stat(path)
	created := errors.Is(err, fs.ErrNotExist)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("corpus: write %s: %w", path, err)
	}
	// Only new files get 0644; atomic.WriteFile keeps the mode of an
	// existing one.
	if created {
		if err := os.Chmod(path, 0o644); err != nil {
			return fmt.Errorf("corpus: chmod %s: %w", path, err)
		}
	}
	return nil
}

// ReadManifest reads dir/manifest.json.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corpus: decode manifest: %w", err)
	}
	return &m, nil
}
