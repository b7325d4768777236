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

// Package cli declares the shared option set and flag wiring for every
// holycc subcommand: check, preprocess, ast-dump, emit-hir, emit-llvm,
// jit, repl, build, and run.
package cli

import (
	"flag"
	"fmt"

	"github.com/holyc-tools/holycc/internal/backend"
)

// Options holds every flag value a subcommand might consult; each
// subcommand reads only the fields relevant to it.
type Options struct {
	File string

	Strict bool // default true; --permissive flips it off

	TimePhases     bool
	TimePhasesJSON string

	JITBackend string
	JITSession string
	JITReset   bool

	OptLevel string // "0","1","2","3","s","z"

	OutputPath  string
	Target      string
	ArtifactDir string
	KeepTemps   bool
}

// ParseOptLevel maps the --opt-level flag text onto backend.OptLevel.
func ParseOptLevel(s string) (backend.OptLevel, error) {
	switch s {
	case "0":
		return backend.O0, nil
	case "1":
		return backend.O1, nil
	case "2", "":
		return backend.O2, nil
	case "3":
		return backend.O3, nil
	case "s":
		return backend.Os, nil
	case "z":
		return backend.Oz, nil
	}
	return backend.O0, fmt.Errorf("invalid --opt-level %q, want one of 0,1,2,3,s,z", s)
}

// NewFlagSet builds a flag.FlagSet for one subcommand, wiring only the
// flags that subcommand accepts into opts. strict/permissive,
// time-phases and opt-level are registered for every subcommand; the JIT
// and build flags are opted into per command.
func NewFlagSet(name string, opts *Options, withJIT, withBuild bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Bool("strict", true, "reject compatibility modifiers")
	fs.Bool("permissive", false, "allow compatibility modifiers (overrides --strict)")
	fs.BoolVar(&opts.TimePhases, "time-phases", false, "print per-phase wall-clock timings")
	fs.StringVar(&opts.TimePhasesJSON, "time-phases-json", "", "write per-phase timings as JSON to `path`")
	fs.StringVar(&opts.OptLevel, "opt-level", "2", "optimization level: 0,1,2,3,s,z")

	if withJIT {
		fs.StringVar(&opts.JITBackend, "jit-backend", "llvm", "JIT execution backend")
		fs.StringVar(&opts.JITSession, "jit-session", "", "named JIT session to reuse")
		fs.BoolVar(&opts.JITReset, "jit-reset", false, "discard the session after this run")
	}
	if withBuild {
		fs.StringVar(&opts.OutputPath, "o", "a.out", "output executable path")
		fs.StringVar(&opts.Target, "target", "", "target triple (default: host)")
		fs.StringVar(&opts.ArtifactDir, "artifact-dir", ".holyc-artifacts", "directory for .ll/.o intermediates")
		fs.BoolVar(&opts.KeepTemps, "keep-temps", false, "keep .ll/.o intermediates after linking")
	}

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: holycc %s [flags] <file>\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// ResolveStrict reapplies the --permissive override after Parse has run,
// since flag.Bool values aren't readable until after fs.Parse.
func ResolveStrict(fs *flag.FlagSet, opts *Options) {
	permissive := fs.Lookup("permissive").Value.(flag.Getter).Get().(bool)
	strict := fs.Lookup("strict").Value.(flag.Getter).Get().(bool)
	opts.Strict = strict && !permissive
}
