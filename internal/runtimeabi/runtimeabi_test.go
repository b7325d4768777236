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

package runtimeabi

import (
	"strings"
	"testing"
)

// requiredSymbols is the External Interfaces runtime ABI symbol list this
// module must provide a declaration for, so every JIT-emitted module
// verifies against a complete runtime symbol set.
var requiredSymbols = []string{
	"hc_runtime_abi_version",
	"hc_print_str",
	"hc_put_char",
	"hc_print_fmt",
	"hc_try_push",
	"hc_try_pop",
	"hc_throw_i64",
	"hc_exception_payload",
	"hc_exception_active",
	"hc_try_depth",
	"hc_malloc",
	"hc_free",
	"hc_memcpy",
	"hc_memset",
	"hc_register_reflection_table",
	"hc_reflection_fields",
	"hc_reflection_field_count",
	"CallStkGrow",
	"Spawn",
	"JobQue",
	"JobResGet",
	"HashFind",
	"MemberMetaData",
	"MemberMetaFind",
	"hc_task_spawn",
}

func TestDefaultIRDeclaresEverySymbol(t *testing.T) {
	ir := DefaultIR()
	for _, sym := range requiredSymbols {
		if !strings.Contains(ir, "@"+sym+"(") {
			t.Errorf("DefaultIR() missing declaration for %s", sym)
		}
	}
}

func TestDefaultIRIsDeclareOnly(t *testing.T) {
	ir := DefaultIR()
	for _, line := range strings.Split(strings.TrimRight(ir, "\n"), "\n") {
		if !strings.HasPrefix(line, "declare ") {
			t.Errorf("DefaultIR() line %q is not a declare-only line", line)
		}
	}
}

func TestPutCharAndPrintFmtSignaturesMatchEmitter(t *testing.T) {
	// internal/irgen's declareRuntimeIntrinsics calls into these two
	// symbols with an i64 char argument and an i32 return respectively;
	// this module's base dylib must declare matching signatures or the
	// JIT session would fail to resolve a consistent symbol.
	ir := DefaultIR()
	if !strings.Contains(ir, "declare void @hc_put_char(i64)") {
		t.Errorf("hc_put_char declaration does not take an i64 argument:\n%s", ir)
	}
	if !strings.Contains(ir, "declare i32 @hc_print_fmt(") {
		t.Errorf("hc_print_fmt declaration does not return i32:\n%s", ir)
	}
}
