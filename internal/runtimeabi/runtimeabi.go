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

// Package runtimeabi declares the fixed runtime support symbol set the
// emitted IR references: hc_print_*, hc_try_*, hc_throw_i64, hc_malloc/
// hc_free/hc_memcpy/hc_memset, the reflection-table registration hook,
// and the task-spawn/job-queue primitives. A JIT session loads this
// declare-only module as its base dylib so every generated module
// verifies against a complete symbol set; a deployed runtime's real
// shared object supplies the bodies when the host process starts.
package runtimeabi

import "strings"

// declarations is one "declare <ret> @<name>(<params>)" line per symbol,
// grouped to match the ABI list.
var declarations = []string{
	"declare i64 @hc_runtime_abi_version()",
	"declare void @hc_print_str(i8*)",
	"declare void @hc_put_char(i64)",
	"declare i32 @hc_print_fmt(i8*, i64*, i64)",
	"declare void @hc_try_push(i8*)",
	"declare void @hc_try_pop(i8*)",
	"declare void @hc_throw_i64(i64)",
	"declare i64 @hc_exception_payload()",
	"declare i1 @hc_exception_active()",
	"declare i64 @hc_try_depth()",
	"declare i8* @hc_malloc(i64)",
	"declare void @hc_free(i8*)",
	"declare i8* @hc_memcpy(i8*, i8*, i64)",
	"declare i8* @hc_memset(i8*, i32, i64)",
	"declare void @hc_register_reflection_table(i8*, i64)",
	"declare i8* @hc_reflection_fields()",
	"declare i64 @hc_reflection_field_count()",
	"declare void @CallStkGrow()",
	"declare i64 @Spawn(i8*)",
	"declare i8* @JobQue()",
	"declare i64 @JobResGet(i8*)",
	"declare i8* @HashFind(i8*, i8*)",
	"declare i8* @MemberMetaData(i8*, i8*)",
	"declare i8* @MemberMetaFind(i8*, i8*)",
	"declare void @hc_task_spawn(i8*)",
	"declare void @hc_task_wait_all()",
}

// DefaultIR returns the module text a JIT session loads as its base
// runtime dylib.
func DefaultIR() string {
	return strings.Join(declarations, "\n") + "\n"
}
