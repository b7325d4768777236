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

package irgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/holyc-tools/holycc/internal/hir"
)

// synthesizeHostMain builds a host main(argc, argv) wrapper around a
// HolyC Main, when the module defines one and no host main already
// exists: it registers the reflection table (if present), passes
// argc/argv through to Main coerced to its declared parameter types, and
// truncates or zero-extends the return to i32, returning 0 for a
// U0-returning Main.
func (e *emitter) synthesizeHostMain(mod *hir.Module, reflPtr llvm.Value, reflCount int) error {
	if !e.mod.NamedFunction("main").IsNil() {
		return nil
	}
	var holycMain *hir.Function
	for _, fn := range mod.Functions {
		if fn.Name == "Main" {
			holycMain = fn
			break
		}
	}
	if holycMain == nil {
		return nil
	}

	i32 := e.ctx.Int32Type()
	i8pp := llvm.PointerType(llvm.PointerType(e.ctx.Int8Type(), 0), 0)
	ftyp := llvm.FunctionType(i32, []llvm.Type{i32, i8pp}, false)
	main := llvm.AddFunction(e.mod, "main", ftyp)
	main.Param(0).SetName("argc")
	main.Param(1).SetName("argv")

	entry := llvm.AddBasicBlock(main, "entry")
	e.b.SetInsertPointAtEnd(entry)

	if reflCount > 0 {
		regFn := e.mod.NamedFunction("hc_register_reflection_table")
		count := llvm.ConstInt(e.ctx.Int64Type(), uint64(reflCount), false)
		e.b.CreateCall(regFn, []llvm.Value{reflPtr, count}, "")
	}

	holyMainFn := e.mod.NamedFunction("Main")
	var args []llvm.Value
	paramTypes := holyMainFn.Type().ElementType().ParamTypes()
	sourceArgs := []llvm.Value{main.Param(0), main.Param(1)}
	for i := 0; i < len(paramTypes); i++ {
		if i < len(sourceArgs) {
			args = append(args, e.coerce(sourceArgs[i], paramTypes[i]))
		} else {
			args = append(args, llvm.ConstNull(paramTypes[i]))
		}
	}

	if holycMain.Return == "U0" || holycMain.Return == "" {
		e.b.CreateCall(holyMainFn, args, "")
		e.b.CreateRet(llvm.ConstInt(i32, 0, false))
		return nil
	}
	result := e.b.CreateCall(holyMainFn, args, "")
	if rt := result.Type(); rt.TypeKind() == llvm.IntegerTypeKind && rt.IntTypeWidth() < 32 {
		e.b.CreateRet(e.b.CreateZExt(result, i32, ""))
		return nil
	}
	e.b.CreateRet(e.coerce(result, i32))
	return nil
}
