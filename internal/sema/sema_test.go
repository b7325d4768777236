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

package sema

import (
	"testing"

	"github.com/holyc-tools/holycc/internal/diag"
	"github.com/holyc-tools/holycc/internal/parser"
	"github.com/holyc-tools/holycc/internal/types"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want diagnostic %s", code)
	}
	d, ok := diag.AsDiagnostic(err)
	if !ok {
		t.Fatalf("error %v is not a diagnostic", err)
	}
	if d.Code != code {
		t.Errorf("diagnostic code = %q, want %q", d.Code, code)
	}
}

func TestAnalyzeSimpleFunctionOK(t *testing.T) {
	src := "I64 Add(I64 a, I64 b) { return a + b; }"
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, res, err := Analyze(prog, Options{File: "<test>", Strict: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	sig, ok := res.Functions["Add"]
	if !ok {
		t.Fatalf("Functions missing Add")
	}
	if sig.Return != types.I64 || len(sig.Params) != 2 {
		t.Errorf("Add signature = %+v, want I64 return and 2 params", sig)
	}
}

func TestAnalyzeUndefinedIdentifier(t *testing.T) {
	src := "I64 Add() { return undefinedVar; }"
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3021")
}

func TestAnalyzeDuplicateGlobal(t *testing.T) {
	src := "I64 g; I64 g;"
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3001")
}

func TestAnalyzeDuplicateLocal(t *testing.T) {
	src := "I64 Foo() { I64 x; I64 x; return 0; }"
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3005")
}

func TestAnalyzeAssignmentMatchingBoolTypeOK(t *testing.T) {
	src := `Bool b;
I64 Foo() { b = TRUE; return 0; }`
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err := Analyze(prog, Options{File: "<test>", Strict: true}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
}

func TestAnalyzeStrictModeRejectsModifier(t *testing.T) {
	src := "public I64 Foo() { return 0; }"
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3071")
}

func TestAnalyzePermissiveModeAllowsModifier(t *testing.T) {
	src := "public I64 Foo() { return 0; }"
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err := Analyze(prog, Options{File: "<test>", Strict: false}); err != nil {
		t.Fatalf("Analyze(permissive) = %v, want nil", err)
	}
}

func TestAnalyzeUndefinedGoto(t *testing.T) {
	src := "I64 Foo() { goto nowhere; return 0; }"
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3054")
}

func TestAnalyzeDuplicateLabel(t *testing.T) {
	src := `I64 Foo() {
top:
	I64 x = 0;
top:
	return x;
}`
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3053")
}

func TestAnalyzeDuplicateClassField(t *testing.T) {
	src := `class Point { I64 x; I64 x; };`
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3002")
}

func TestAnalyzeTooManyArguments(t *testing.T) {
	src := `I64 Add(I64 a, I64 b) { return a + b; }
I64 Caller() { return Add(1, 2, 3); }`
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = Analyze(prog, Options{File: "<test>", Strict: true})
	assertCode(t, err, "HC3041")
}
