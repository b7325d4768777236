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

package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(f) {
		t.Errorf("Exists(%q) = false, want true", f)
	}
	if Exists(filepath.Join(dir, "absent.txt")) {
		t.Errorf("Exists(absent) = true, want false")
	}
}

func TestResolveInclude(t *testing.T) {
	root := t.TempDir()
	includerDir := filepath.Join(root, "src")
	sysDir := filepath.Join(root, "sys")
	for _, d := range []string{includerDir, sysDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(includerDir, "local.hc"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sysDir, "sys.hc"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	// Also present in includerDir, to confirm includer's own dir wins.
	if err := os.WriteFile(filepath.Join(includerDir, "shadowed.hc"), []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sysDir, "shadowed.hc"), []byte("sys"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name    string
		want    string
		wantOK  bool
	}{
		{name: "local.hc", want: filepath.Join(includerDir, "local.hc"), wantOK: true},
		{name: "sys.hc", want: filepath.Join(sysDir, "sys.hc"), wantOK: true},
		{name: "shadowed.hc", want: filepath.Join(includerDir, "shadowed.hc"), wantOK: true},
		{name: "missing.hc", want: "", wantOK: false},
	} {
		got, ok := ResolveInclude(includerDir, tc.name, []string{sysDir})
		if ok != tc.wantOK || (ok && got != tc.want) {
			t.Errorf("ResolveInclude(%q)=(%q,%v), want (%q,%v)", tc.name, got, ok, tc.want, tc.wantOK)
		}
	}

	abs := filepath.Join(sysDir, "sys.hc")
	got, ok := ResolveInclude(includerDir, abs, nil)
	if !ok || got != abs {
		t.Errorf("ResolveInclude(absolute)=(%q,%v), want (%q,true)", got, ok, abs)
	}
}

func TestArtifactDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	got, err := ArtifactDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(dir) {
		t.Errorf("ArtifactDir(%q)=%q, want %q", dir, got, filepath.Clean(dir))
	}
	if !Exists(got) {
		t.Errorf("ArtifactDir did not create %q", got)
	}

	def, err := ArtifactDir("")
	if err != nil {
		t.Fatal(err)
	}
	if def != ".holyc-artifacts" {
		t.Errorf("ArtifactDir(\"\")=%q, want .holyc-artifacts", def)
	}
	os.RemoveAll(".holyc-artifacts")
}

func TestCleanupTemps(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ll")
	b := filepath.Join(dir, "b.o")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	CleanupTemps(true, a, b)
	if !Exists(a) || !Exists(b) {
		t.Errorf("CleanupTemps(keep=true) removed files it should have kept")
	}

	CleanupTemps(false, a, b)
	if Exists(a) || Exists(b) {
		t.Errorf("CleanupTemps(keep=false) left files that should be removed")
	}
}
