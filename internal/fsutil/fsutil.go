// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fsutil resolves #include search roots and manages the on-disk
// artifact directory (.ll/.o intermediates, --keep-temps retention).
package fsutil

import (
	"os"
	"path/filepath"
)

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolveInclude searches dirs, in order, for name, returning the first
// match's path. fromDir (the includer's own directory) is always searched
// first, matching quoted-include lookup order; dirs are additional
// search roots supplied via configuration.
func ResolveInclude(fromDir, name string, dirs []string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, Exists(name)
	}
	candidate := filepath.Join(fromDir, name)
	if Exists(candidate) {
		return candidate, true
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ArtifactDir ensures dir exists (defaulting to .holyc-artifacts) and
// returns its cleaned form.
func ArtifactDir(dir string) (string, error) {
	if dir == "" {
		dir = ".holyc-artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Clean(dir), nil
}

// CleanupTemps removes the named intermediate files unless keep is set,
// the --keep-temps counterpart to ArtifactDir's creation side.
func CleanupTemps(keep bool, paths ...string) {
	if keep {
		return
	}
	for _, p := range paths {
		os.Remove(p)
	}
}
