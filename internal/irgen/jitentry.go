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
	"fmt"

	"tinygo.org/x/go-llvm"
)

// SynthesizeJITEntry renames entryFunc to __holyc_entry_target_<n> and adds
// a synthesized __holyc_entry_<n>() that builds a minimal argc=1,
// argv={"holyc-jit", nil} call frame, invokes the renamed target, and
// returns its result coerced to i32. Returns the
// synthesized entry's name for the session to look up.
func SynthesizeJITEntry(ctx llvm.Context, mod llvm.Module, entryFunc string, n int) (string, error) {
	target := mod.NamedFunction(entryFunc)
	if target.IsNil() {
		return "", fmt.Errorf("entry function %q not found in module", entryFunc)
	}
	targetName := fmt.Sprintf("__holyc_entry_target_%d", n)
	target.SetName(targetName)

	entryName := fmt.Sprintf("__holyc_entry_%d", n)
	i32 := ctx.Int32Type()
	wrapperTyp := llvm.FunctionType(i32, nil, false)
	wrapper := llvm.AddFunction(mod, entryName, wrapperTyp)

	b := ctx.NewBuilder()
	defer b.Dispose()
	entry := llvm.AddBasicBlock(wrapper, "entry")
	b.SetInsertPointAtEnd(entry)

	i8p := llvm.PointerType(ctx.Int8Type(), 0)
	i8pp := llvm.PointerType(i8p, 0)

	progName := b.CreateGlobalStringPtr("holyc-jit", "")
	argv := b.CreateAlloca(llvm.ArrayType(i8p, 2), "argv")
	zero32 := llvm.ConstInt(ctx.Int32Type(), 0, false)
	slot0 := b.CreateInBoundsGEP(argv, []llvm.Value{zero32, llvm.ConstInt(ctx.Int32Type(), 0, false)}, "")
	b.CreateStore(progName, slot0)
	slot1 := b.CreateInBoundsGEP(argv, []llvm.Value{zero32, llvm.ConstInt(ctx.Int32Type(), 1, false)}, "")
	b.CreateStore(llvm.ConstPointerNull(i8p), slot1)
	argvPtr := b.CreateBitCast(argv, i8pp, "")

	paramTypes := target.Type().ElementType().ParamTypes()
	var args []llvm.Value
	argc := llvm.ConstInt(i32, 1, false)
	candidates := []llvm.Value{argc, argvPtr}
	for i, pt := range paramTypes {
		if i < len(candidates) {
			args = append(args, coerceStandalone(&b, candidates[i], pt))
		} else {
			args = append(args, llvm.ConstNull(pt))
		}
	}

	result := b.CreateCall(target, args, "")
	retType := target.Type().ElementType().ReturnType()
	if retType.TypeKind() == llvm.VoidTypeKind {
		b.CreateRet(llvm.ConstInt(i32, 0, false))
	} else {
		b.CreateRet(coerceStandalone(&b, result, i32))
	}
	return entryName, nil
}

// coerceStandalone is a reduced emitter.coerce for the one-off JIT-entry
// synthesis path, which runs outside of a live emitter instance. It
// handles integer width changes, pointer bitcasts and pointer-to-integer;
// any other value (floats, integer-to-pointer) is returned unchanged.
func coerceStandalone(b *llvm.Builder, val llvm.Value, dst llvm.Type) llvm.Value {
	src := val.Type()
	if src == dst {
		return val
	}
	if src.TypeKind() == llvm.IntegerTypeKind && dst.TypeKind() == llvm.IntegerTypeKind {
		if src.IntTypeWidth() < dst.IntTypeWidth() {
			return b.CreateSExt(val, dst, "")
		}
		return b.CreateTrunc(val, dst, "")
	}
	if src.TypeKind() == llvm.PointerTypeKind && dst.TypeKind() == llvm.PointerTypeKind {
		return b.CreateBitCast(val, dst, "")
	}
	if src.TypeKind() == llvm.PointerTypeKind && dst.TypeKind() == llvm.IntegerTypeKind {
		return b.CreatePtrToInt(val, dst, "")
	}
	return val
}
