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

// Command holycc is the HolyC toolchain driver: preprocess, parse,
// analyze, lower, and either emit LLVM IR, JIT-execute, drop into a REPL,
// or drive the AOT backend to a linked executable.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/golang/glog"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/backend"
	"github.com/holyc-tools/holycc/internal/cli"
	"github.com/holyc-tools/holycc/internal/diag"
	"github.com/holyc-tools/holycc/internal/fsutil"
	"github.com/holyc-tools/holycc/internal/hir"
	"github.com/holyc-tools/holycc/internal/irgen"
	"github.com/holyc-tools/holycc/internal/jit"
	"github.com/holyc-tools/holycc/internal/parser"
	"github.com/holyc-tools/holycc/internal/preprocess"
	"github.com/holyc-tools/holycc/internal/repl"
	"github.com/holyc-tools/holycc/internal/runtimeabi"
	"github.com/holyc-tools/holycc/internal/sema"
	"github.com/holyc-tools/holycc/internal/stats"
)

const version = "holycc 0.1.0"

var jitManager = jit.NewManager()

func main() {
	os.Exit(run(os.Args[1:]))
}

// Exit codes: 0 success, 1 pipeline error, 2 usage error.
func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	switch args[0] {
	case "--version":
		fmt.Println(version)
		return 0
	case "--print-strict-mode":
		fmt.Println("strict")
		return 0
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "check", "preprocess", "ast-dump", "emit-hir", "emit-llvm", "jit", "repl", "build", "run":
	default:
		usage()
		return 2
	}

	var opts cli.Options
	fs := cli.NewFlagSet(cmd, &opts, cmd == "jit" || cmd == "repl", cmd == "build" || cmd == "run")
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	cli.ResolveStrict(fs, &opts)

	if cmd != "repl" {
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "missing <file> argument")
			return 2
		}
		opts.File = fs.Arg(0)
	}

	rec := stats.NewRecorder()
	var code int
	switch cmd {
	case "check":
		code = runCheck(&opts, rec)
	case "preprocess":
		code = runPreprocess(&opts, rec)
	case "ast-dump":
		code = runASTDump(&opts, rec)
	case "emit-hir":
		code = runEmitHIR(&opts, rec)
	case "emit-llvm":
		code = runEmitLLVM(&opts, rec)
	case "jit":
		code = runJIT(&opts, rec)
	case "repl":
		code = runREPL(&opts)
	case "build":
		code = runBuild(&opts, rec)
	case "run":
		code = runBuildAndRun(&opts, rec)
	}

	writeStats(&opts, rec, cmd)
	return code
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: holycc <check|preprocess|ast-dump|emit-hir|emit-llvm|jit|repl|build|run> [flags] <file>")
	fmt.Fprintln(os.Stderr, "       holycc --version")
	fmt.Fprintln(os.Stderr, "       holycc --print-strict-mode")
}

func writeStats(opts *cli.Options, rec *stats.Recorder, cmd string) {
	if opts.TimePhases {
		rec.WriteText(os.Stderr)
	}
	if opts.TimePhasesJSON != "" {
		f, err := os.Create(opts.TimePhasesJSON)
		if err != nil {
			glog.Errorf("opening --time-phases-json path: %v", err)
			return
		}
		defer f.Close()
		if err := rec.WriteJSON(f, cmd); err != nil {
			glog.Errorf("writing --time-phases-json: %v", err)
		}
	}
}

func reportErr(err error) {
	if d, ok := diag.AsDiagnostic(err); ok {
		fmt.Fprintln(os.Stderr, d.Format())
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
}

// frontend runs preprocess+parse+sema, the shared front end for every
// subcommand. On error it reports the diagnostic and returns ok=false.
func frontend(opts *cli.Options, rec *stats.Recorder) (prog *ast.Node, res *sema.Result, ok bool) {
	src, err := os.ReadFile(opts.File)
	if err != nil {
		reportErr(err)
		return nil, nil, false
	}

	var processed string
	if err := rec.Track("preprocess", func() error {
		pp := preprocess.New(preprocess.Options{})
		out, err := pp.Process(opts.File, src)
		processed = out
		return err
	}); err != nil {
		reportErr(err)
		return nil, nil, false
	}

	if err := rec.Track("parse", func() error {
		p, err := parser.Parse(opts.File, []byte(processed))
		prog = p
		return err
	}); err != nil {
		reportErr(err)
		return nil, nil, false
	}

	if err := rec.Track("sema", func() error {
		typed, r, err := sema.Analyze(prog, sema.Options{File: opts.File, Strict: opts.Strict})
		if err != nil {
			return err
		}
		prog, res = typed, r
		return nil
	}); err != nil {
		reportErr(err)
		return nil, nil, false
	}
	return prog, res, true
}

func lowerHIR(prog *ast.Node, res *sema.Result, rec *stats.Recorder) (*hir.Module, bool) {
	var mod *hir.Module
	if err := rec.Track("lower", func() error {
		m, err := hir.Lower(prog, res)
		mod = m
		return err
	}); err != nil {
		reportErr(err)
		return nil, false
	}
	return mod, true
}

func runCheck(opts *cli.Options, rec *stats.Recorder) int {
	_, res, ok := frontend(opts, rec)
	if !ok {
		return 1
	}
	for _, w := range res.Warnings.All() {
		fmt.Fprintln(os.Stderr, w.Format())
	}
	return 0
}

func runPreprocess(opts *cli.Options, rec *stats.Recorder) int {
	src, err := os.ReadFile(opts.File)
	if err != nil {
		reportErr(err)
		return 1
	}
	var out string
	if err := rec.Track("preprocess", func() error {
		pp := preprocess.New(preprocess.Options{})
		o, err := pp.Process(opts.File, src)
		out = o
		return err
	}); err != nil {
		reportErr(err)
		return 1
	}
	fmt.Print(out)
	return 0
}

func runASTDump(opts *cli.Options, rec *stats.Recorder) int {
	prog, _, ok := frontend(opts, rec)
	if !ok {
		return 1
	}
	ast.Dump(os.Stdout, prog)
	return 0
}

func runEmitHIR(opts *cli.Options, rec *stats.Recorder) int {
	prog, res, ok := frontend(opts, rec)
	if !ok {
		return 1
	}
	mod, ok := lowerHIR(prog, res, rec)
	if !ok {
		return 1
	}
	hir.Dump(os.Stdout, mod)
	return 0
}

func runEmitLLVM(opts *cli.Options, rec *stats.Recorder) int {
	prog, res, ok := frontend(opts, rec)
	if !ok {
		return 1
	}
	mod, ok := lowerHIR(prog, res, rec)
	if !ok {
		return 1
	}

	var irText string
	err := rec.Track("irgen", func() error {
		llvmMod, ctx, err := irgen.Emit(mod, irgen.Options{ModuleName: opts.File, SynthesizeMain: false})
		if err != nil {
			return err
		}
		irText = llvmMod.String()
		llvmMod.Dispose()
		ctx.Dispose()
		return nil
	})
	if err != nil {
		reportErr(err)
		return 1
	}
	fmt.Print(irText)
	return 0
}

func runJIT(opts *cli.Options, rec *stats.Recorder) int {
	prog, res, ok := frontend(opts, rec)
	if !ok {
		return 1
	}
	mod, ok := lowerHIR(prog, res, rec)
	if !ok {
		return 1
	}

	sessionName := opts.JITSession
	if sessionName == "" {
		sessionName = "__default__"
	}
	sess, err := jitManager.GetOrCreate(sessionName, runtimeabi.DefaultIR())
	if err != nil {
		reportErr(err)
		return 1
	}

	var rc int32
	err = rec.Track("jit", func() error {
		llvmMod, ctx, err := irgen.Emit(mod, irgen.Options{ModuleName: opts.File, SynthesizeMain: false})
		if err != nil {
			return err
		}
		entry, err := irgen.SynthesizeJITEntry(ctx, llvmMod, "Main", 0)
		if err != nil {
			ctx.Dispose()
			return err
		}
		irText := llvmMod.String()
		ctx.Dispose()

		rc, err = sess.Execute(irText, entry, opts.JITReset)
		return err
	})
	if err != nil {
		reportErr(err)
		return 1
	}
	return int(rc)
}

func runREPL(opts *cli.Options) int {
	sessionName := opts.JITSession
	if sessionName == "" {
		sessionName = "__repl__"
	}
	sess, err := jitManager.GetOrCreate(sessionName, runtimeabi.DefaultIR())
	if err != nil {
		reportErr(err)
		return 1
	}
	session := repl.NewSession()

	fmt.Println(version, "- interactive REPL, Ctrl-D to exit")
	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	cellSeq := 0
	inMultiline := false
	for {
		if inMultiline {
			fmt.Print(":} ")
		} else {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if !inMultiline {
			trimmed := strings.TrimSpace(line)
			switch trimmed {
			case ":{":
				inMultiline = true
				buf.Reset()
				continue
			case ":reset":
				if err := sess.HardReset(); err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				session = repl.NewSession()
				fmt.Println("jit session reset")
				continue
			}
		} else if strings.TrimSpace(line) == ":}" {
			inMultiline = false
			line = ""
		} else {
			buf.WriteString(line)
			buf.WriteByte('\n')
			continue
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
		body := buf.String()

		prog, parseErr := parser.Parse("<repl>", []byte(body))
		var perrText string
		if parseErr != nil {
			perrText = parseErr.Error()
		}
		if !repl.Ready(body, perrText) {
			continue
		}
		if parseErr != nil {
			fmt.Fprintln(os.Stderr, parseErr)
			buf.Reset()
			continue
		}

		kind, err := repl.Classify(prog)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			buf.Reset()
			continue
		}
		switch kind {
		case repl.CellDeclaration:
			session.AddDeclarations(prog.Children)
		case repl.CellExecutable, repl.CellExpression:
			name, fn := session.WrapExecutable(body, kind == repl.CellExpression)
			src := session.Prelude() + "\n" + fn
			rc, err := evalREPLCell(src, name, sess, cellSeq)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			} else if kind == repl.CellExpression {
				fmt.Println(rc)
			}
			cellSeq++
		}
		buf.Reset()
	}
	return 0
}

// evalREPLCell runs the full front end over one synthesized cell source
// (prelude plus the wrapped entry function named entryFunc), executes it
// in sess, and returns the synthesized entry's i32 result.
func evalREPLCell(src, entryFunc string, sess *jit.Session, seq int) (int32, error) {
	prog, err := parser.Parse("<repl>", []byte(src))
	if err != nil {
		return 0, err
	}
	prog, res, err := sema.Analyze(prog, sema.Options{File: "<repl>", Strict: false})
	if err != nil {
		return 0, err
	}
	mod, err := hir.Lower(prog, res)
	if err != nil {
		return 0, err
	}
	llvmMod, ctx, err := irgen.Emit(mod, irgen.Options{ModuleName: "repl-cell", SynthesizeMain: false})
	if err != nil {
		return 0, err
	}
	defer ctx.Dispose()
	entry, err := irgen.SynthesizeJITEntry(ctx, llvmMod, entryFunc, seq)
	if err != nil {
		return 0, err
	}
	irText := llvmMod.String()
	return sess.Execute(irText, entry, false)
}

func runBuild(opts *cli.Options, rec *stats.Recorder) int {
	prog, res, ok := frontend(opts, rec)
	if !ok {
		return 1
	}
	mod, ok := lowerHIR(prog, res, rec)
	if !ok {
		return 1
	}

	var irText string
	err := rec.Track("irgen", func() error {
		llvmMod, ctx, err := irgen.Emit(mod, irgen.Options{ModuleName: opts.File, SynthesizeMain: true})
		if err != nil {
			return err
		}
		irText = llvmMod.String()
		llvmMod.Dispose()
		ctx.Dispose()
		return nil
	})
	if err != nil {
		reportErr(err)
		return 1
	}

	level, err := cli.ParseOptLevel(opts.OptLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	artifactDir, err := fsutil.ArtifactDir(opts.ArtifactDir)
	if err != nil {
		reportErr(err)
		return 1
	}

	err = rec.Track("backend", func() error {
		return backend.Build(irText, backend.Options{
			OutputPath:   opts.OutputPath,
			ArtifactDir:  artifactDir,
			TargetTriple: opts.Target,
			Opt:          level,
			KeepTemps:    opts.KeepTemps,
		})
	})
	if err != nil {
		reportErr(err)
		return 1
	}
	return 0
}

func runBuildAndRun(opts *cli.Options, rec *stats.Recorder) int {
	if code := runBuild(opts, rec); code != 0 {
		return code
	}
	exePath := opts.OutputPath
	if exePath == "" {
		exePath = "a.out"
	}
	if !strings.Contains(exePath, "/") {
		exePath = "./" + exePath
	}
	cmd := exec.Command(exePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		reportErr(err)
		return 1
	}
	return 0
}
