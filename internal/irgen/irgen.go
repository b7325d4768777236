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

// Package irgen lowers hir.Module into a verified llvm.Module. The
// emitter shape is a Builder+Module+current-function triple threaded
// through recursive codegen, with a scope-stack of map[string]llvm.Value
// holding each local's alloca; the reflection-table and host-main
// synthesis are layered on top as separate passes.
package irgen

import (
	"fmt"

	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"github.com/holyc-tools/holycc/internal/hir"
)

// Options controls module-level emission choices.
type Options struct {
	ModuleName     string
	SynthesizeMain bool // emit a host main() wrapper around HolyC Main, when present
}

// emitter carries the Builder/Module and per-function codegen state.
type emitter struct {
	ctx    llvm.Context
	mod    llvm.Module
	b      llvm.Builder
	opts   Options
	hirMod *hir.Module

	aggTypes map[string]llvm.Type      // aggregate name -> struct type
	aggInfo  map[string]*aggLayout     // aggregate name -> field layout
	fnSigs   map[string]*hir.Signature // function name -> declared signature

	scopes      []map[string]llvm.Value // innermost last; index 0 is params
	curFn       llvm.Value
	curRet      string
	endBB       []llvm.BasicBlock // innermost-last loop/switch "break" target
	inAtomic    bool
	labelBlocks map[string]llvm.BasicBlock
	tryFrames   []llvm.Value // entry-block alloca per enclosing try region
}

type aggLayout struct {
	union  bool
	fields map[string]fieldInfo
	order  []string
}

type fieldInfo struct {
	index int
	typ   string
}

// Emit lowers mod into a verified LLVM module and returns it. The caller
// owns disposing the returned module's context.
func Emit(mod *hir.Module, opts Options) (llvm.Module, llvm.Context, error) {
	ctx := llvm.NewContext()
	name := opts.ModuleName
	if name == "" {
		name = "holyc_module"
	}
	e := &emitter{
		ctx:      ctx,
		mod:      ctx.NewModule(name),
		b:        ctx.NewBuilder(),
		opts:     opts,
		hirMod:   mod,
		aggTypes: make(map[string]llvm.Type),
		aggInfo:  make(map[string]*aggLayout),
		fnSigs:   make(map[string]*hir.Signature),
	}

	e.declareRuntimeIntrinsics()

	for name, agg := range mod.Aggregates {
		e.declareAggregate(name, agg)
	}
	for name, agg := range mod.Aggregates {
		if err := e.buildAggregateBody(name, agg); err != nil {
			return llvm.Module{}, ctx, err
		}
	}

	for _, g := range mod.Globals {
		if err := e.declareGlobal(g); err != nil {
			return llvm.Module{}, ctx, err
		}
	}

	reflPtr, reflCount := e.emitReflectionTable(mod.Reflection)

	for _, fn := range mod.Functions {
		if _, err := e.declareFunction(fn); err != nil {
			return llvm.Module{}, ctx, err
		}
	}
	for _, fn := range mod.Functions {
		if len(fn.Body) == 0 {
			continue
		}
		if err := e.emitFunctionBody(fn); err != nil {
			return llvm.Module{}, ctx, err
		}
	}

	if opts.SynthesizeMain {
		if err := e.synthesizeHostMain(mod, reflPtr, reflCount); err != nil {
			return llvm.Module{}, ctx, err
		}
	}

	if err := llvm.VerifyModule(e.mod, llvm.ReturnStatusAction); err != nil {
		return llvm.Module{}, ctx, errors.Wrap(err, "module verification failed")
	}
	return e.mod, ctx, nil
}

// declareRuntimeIntrinsics installs the fixed runtime symbol set the
// emitter calls into: print/char output, exception frame push/pop/throw,
// and the reflection-table registration hook.
func (e *emitter) declareRuntimeIntrinsics() {
	i8p := llvm.PointerType(e.ctx.Int8Type(), 0)
	i32 := e.ctx.Int32Type()
	i64 := e.ctx.Int64Type()
	voidT := e.ctx.VoidType()

	declare := func(name string, ret llvm.Type, params []llvm.Type, variadic bool) {
		if !e.mod.NamedFunction(name).IsNil() {
			return
		}
		llvm.AddFunction(e.mod, name, llvm.FunctionType(ret, params, variadic))
	}

	declare("hc_print_fmt", i32, []llvm.Type{i8p, llvm.PointerType(i64, 0), i64}, false)
	declare("hc_put_char", voidT, []llvm.Type{i64}, false)
	declare("hc_try_push", voidT, []llvm.Type{i8p}, false)
	declare("hc_try_pop", voidT, []llvm.Type{i8p}, false)
	declare("hc_throw_i64", voidT, []llvm.Type{i64}, false)
	declare("_setjmp", i32, []llvm.Type{i8p}, false)
	declare("hc_register_reflection_table", voidT, []llvm.Type{i8p, i64}, false)
}

func (e *emitter) pushScope() { e.scopes = append(e.scopes, make(map[string]llvm.Value)) }
func (e *emitter) popScope()  { e.scopes = e.scopes[:len(e.scopes)-1] }

func (e *emitter) declare(name string, v llvm.Value) {
	e.scopes[len(e.scopes)-1][name] = v
}

func (e *emitter) lookup(name string) (llvm.Value, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}
	return llvm.Value{}, false
}

func errf(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}
