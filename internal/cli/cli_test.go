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

package cli

import (
	"testing"

	"github.com/holyc-tools/holycc/internal/backend"
)

func TestParseOptLevel(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    backend.OptLevel
		wantErr bool
	}{
		{in: "0", want: backend.O0},
		{in: "1", want: backend.O1},
		{in: "2", want: backend.O2},
		{in: "", want: backend.O2},
		{in: "3", want: backend.O3},
		{in: "s", want: backend.Os},
		{in: "z", want: backend.Oz},
		{in: "9", wantErr: true},
	} {
		got, err := ParseOptLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseOptLevel(%q) = nil error, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOptLevel(%q) = %v, want nil", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseOptLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewFlagSetUniversalFlags(t *testing.T) {
	var opts Options
	fs := NewFlagSet("check", &opts, false, false)
	if err := fs.Parse([]string{"--time-phases", "--opt-level=3", "file.hc"}); err != nil {
		t.Fatal(err)
	}
	if !opts.TimePhases {
		t.Error("--time-phases not wired into opts.TimePhases")
	}
	if opts.OptLevel != "3" {
		t.Errorf("opts.OptLevel=%q, want 3", opts.OptLevel)
	}
	if fs.Arg(0) != "file.hc" {
		t.Errorf("fs.Arg(0)=%q, want file.hc", fs.Arg(0))
	}
	if fs.Lookup("jit-session") != nil {
		t.Error("non-JIT flag set registered --jit-session")
	}
	if fs.Lookup("o") != nil {
		t.Error("non-build flag set registered -o")
	}
}

func TestNewFlagSetJITAndBuildFlags(t *testing.T) {
	var opts Options
	fs := NewFlagSet("jit", &opts, true, false)
	if err := fs.Parse([]string{"--jit-session=foo", "--jit-reset"}); err != nil {
		t.Fatal(err)
	}
	if opts.JITSession != "foo" || !opts.JITReset {
		t.Errorf("opts=%+v, want JITSession=foo JITReset=true", opts)
	}

	var bOpts Options
	bfs := NewFlagSet("build", &bOpts, false, true)
	if err := bfs.Parse([]string{"-o", "out", "--artifact-dir=tmp", "--keep-temps"}); err != nil {
		t.Fatal(err)
	}
	if bOpts.OutputPath != "out" || bOpts.ArtifactDir != "tmp" || !bOpts.KeepTemps {
		t.Errorf("bOpts=%+v, want OutputPath=out ArtifactDir=tmp KeepTemps=true", bOpts)
	}
}

func TestResolveStrictDefaultsStrict(t *testing.T) {
	var opts Options
	fs := NewFlagSet("check", &opts, false, false)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	ResolveStrict(fs, &opts)
	if !opts.Strict {
		t.Error("default Strict = false, want true")
	}
}

func TestResolveStrictPermissiveOverride(t *testing.T) {
	var opts Options
	fs := NewFlagSet("check", &opts, false, false)
	if err := fs.Parse([]string{"--permissive"}); err != nil {
		t.Fatal(err)
	}
	ResolveStrict(fs, &opts)
	if opts.Strict {
		t.Error("--permissive did not clear opts.Strict")
	}
}

func TestResolveStrictExplicitFalse(t *testing.T) {
	var opts Options
	fs := NewFlagSet("check", &opts, false, false)
	if err := fs.Parse([]string{"--strict=false"}); err != nil {
		t.Fatal(err)
	}
	ResolveStrict(fs, &opts)
	if opts.Strict {
		t.Error("--strict=false did not clear opts.Strict")
	}
}
