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

// Package backend drives the AOT path: verify/optimize/emit-object/link.
// It runs VerifyModule, builds a target machine with CreateTargetMachine, emits an object via
// EmitToMemoryBuffer, then shells out to the host linker and surfaces its
// stderr verbatim on failure.
package backend

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"
)

// OptLevel is the requested optimization preset.
type OptLevel int

const (
	O0 OptLevel = iota
	O1
	O2
	O3
	Os
	Oz
)

// Options configures one AOT build.
type Options struct {
	OutputPath  string // final linked executable path
	ArtifactDir string // directory for .ll/.o intermediates
	TargetTriple string
	Opt         OptLevel
	RuntimeSrc  string // path to the runtime support source linked into every binary
	KeepTemps   bool
	Linker      string // defaults to "c++"
}

// Build parses irText in a fresh context, verifies, optimizes, emits an
// object file, and links it with the runtime source into an executable.
func Build(irText string, opts Options) error {
	if err := os.MkdirAll(opts.ArtifactDir, 0o755); err != nil {
		return errors.Wrap(err, "creating artifact directory")
	}

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	buf, err := llvm.NewMemoryBufferFromNodeContent(irText, "holyc")
	if err != nil {
		return errors.Wrap(err, "creating IR memory buffer")
	}
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		return errors.Wrap(err, "parsing LLVM IR")
	}
	defer mod.Dispose()

	triple := opts.TargetTriple
	if triple == "" {
		triple = llvm.DefaultTargetTriple()
	}
	mod.SetTarget(triple)

	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmPrinters()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return errors.Wrap(err, "resolving target triple")
	}

	machine := target.CreateTargetMachine(triple, "", "",
		llvm.CodeGenLevelDefault, llvm.RelocPIC, llvm.CodeModelDefault)
	defer machine.Dispose()
	mod.SetDataLayout(machine.CreateTargetData().String())

	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		return errors.Wrap(err, "module verification failed")
	}

	if opts.Opt != O0 {
		if err := runOptPipeline(mod, machine, opts.Opt); err != nil {
			return errors.Wrap(err, "optimization pipeline failed")
		}
	}

	base := strings.TrimSuffix(filepath.Base(opts.OutputPath), filepath.Ext(opts.OutputPath))
	objPath := filepath.Join(opts.ArtifactDir, base+".o")
	llPath := filepath.Join(opts.ArtifactDir, base+".ll")

	if !opts.KeepTemps {
		defer os.Remove(objPath)
		defer os.Remove(llPath)
	}
	if err := os.WriteFile(llPath, []byte(mod.String()), 0o644); err != nil {
		return errors.Wrap(err, "writing intermediate IR")
	}

	objBuf, err := machine.EmitToMemoryBuffer(mod, llvm.ObjectFile)
	if err != nil {
		return errors.Wrap(err, "emitting object file")
	}
	if err := os.WriteFile(objPath, objBuf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "writing object file")
	}

	return link(objPath, opts)
}

// runOptPipeline applies the standard per-module pass pipeline at the
// requested level; O0 is handled by the caller and never reaches here.
func runOptPipeline(mod llvm.Module, machine llvm.TargetMachine, level OptLevel) error {
	pm := llvm.NewPassManager()
	defer pm.Dispose()
	pmb := llvm.NewPassManagerBuilder()
	defer pmb.Dispose()

	switch level {
	case O1:
		pmb.SetOptLevel(1)
	case O2:
		pmb.SetOptLevel(2)
	case O3:
		pmb.SetOptLevel(3)
	case Os:
		pmb.SetOptLevel(2)
		pmb.SetSizeLevel(1)
	case Oz:
		pmb.SetOptLevel(2)
		pmb.SetSizeLevel(2)
	}
	pmb.Populate(pm)
	pm.Run(mod)
	return nil
}

// link invokes the host C++ compiler as the linker, passing the object
// file and the runtime support source, surfacing stderr verbatim on
// failure.
func link(objPath string, opts Options) error {
	linker := opts.Linker
	if linker == "" {
		linker = "c++"
	}
	args := []string{objPath, "-o", opts.OutputPath}
	if opts.RuntimeSrc != "" {
		args = append(args, opts.RuntimeSrc)
	}
	if opts.TargetTriple != "" {
		args = append(args, "-target", opts.TargetTriple)
	}
	// Deterministic link flag on Linux (or when no triple is given): the
	// build-id note is dropped with --build-id=none. No other link flags
	// are added.
	if strings.Contains(opts.TargetTriple, "linux") || opts.TargetTriple == "" {
		args = append(args, "-Wl,--build-id=none")
	}

	cmd := exec.Command(linker, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("link failed: %v\n%s", err, out)
	}
	return nil
}
