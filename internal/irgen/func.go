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

// declareFunction installs a function's declaration with the right linkage
// before any body is emitted, so that forward and mutually recursive calls
// resolve.
func (e *emitter) declareFunction(fn *hir.Function) (llvm.Value, error) {
	if existing := e.mod.NamedFunction(fn.Name); !existing.IsNil() {
		return existing, nil
	}
	var ptypes []string
	for _, p := range fn.Params {
		ptypes = append(ptypes, p.Type)
	}
	ftyp := e.fnLLVMType(fn.Return, ptypes, false)
	f := llvm.AddFunction(e.mod, fn.Name, ftyp)
	for i, p := range fn.Params {
		f.Param(i).SetName(p.Name)
	}
	switch fn.Linkage {
	case hir.LinkageImport:
		f.SetLinkage(llvm.ExternalLinkage)
	case hir.LinkagePublic:
		f.SetLinkage(llvm.ExternalLinkage)
	default:
		if len(fn.Body) == 0 {
			f.SetLinkage(llvm.ExternalLinkage)
		} else {
			f.SetLinkage(llvm.ExternalLinkage)
		}
	}
	e.fnSigs[fn.Name] = &hir.Signature{Params: ptypes, Return: fn.Return}
	return f, nil
}

// emitFunctionBody generates the entry block, parameter allocas, local
// allocas, and the recursively-lowered statement list.
func (e *emitter) emitFunctionBody(fn *hir.Function) error {
	f := e.mod.NamedFunction(fn.Name)
	entry := llvm.AddBasicBlock(f, "entry")
	e.b.SetInsertPointAtEnd(entry)

	e.curFn = f
	e.curRet = fn.Return
	e.endBB = nil
	e.scopes = nil
	e.pushScope()
	defer e.popScope()

	for i, p := range fn.Params {
		alloc := e.b.CreateAlloca(e.llvmType(p.Type), p.Name)
		e.b.CreateStore(f.Param(i), alloc)
		e.declare(p.Name, alloc)
	}

	labels := collectLabels(fn.Body)
	labelBlocks := make(map[string]llvm.BasicBlock, len(labels))
	for _, name := range labels {
		labelBlocks[name] = llvm.AddBasicBlock(f, name)
	}
	e.labelBlocks = labelBlocks

	if err := e.emitStmts(fn.Body); err != nil {
		return err
	}
	e.terminateFallthrough(e.defaultReturn())
	return nil
}

// defaultReturn produces the implicit "fell off the end of the function"
// terminator: a void return for U0 functions, zero for everything else.
func (e *emitter) defaultReturn() func() {
	return func() {
		if e.curRet == "U0" || e.curRet == "" {
			e.b.CreateRetVoid()
			return
		}
		e.b.CreateRet(llvm.ConstNull(e.llvmType(e.curRet)))
	}
}

// terminateFallthrough appends term() to the current block only if it
// lacks a terminator already (every explicit return/break/goto/throw
// already added one).
func (e *emitter) terminateFallthrough(term func()) {
	bb := e.b.GetInsertBlock()
	if bb.IsNil() {
		return
	}
	if last := bb.LastInstruction(); last.IsNil() || last.IsATerminatorInst().IsNil() {
		term()
	}
}

// collectLabels walks every statement reachable from body (including
// nested blocks/loops/switches/try-catch) and returns every Label name, so
// that basic blocks exist before any forward Goto references them.
func collectLabels(stmts []hir.Stmt) []string {
	var out []string
	var walk func(hir.Stmt)
	walk = func(s hir.Stmt) {
		switch v := s.(type) {
		case *hir.Label:
			out = append(out, v.Name)
		case *hir.Block:
			for _, c := range v.Stmts {
				walk(c)
			}
		case *hir.If:
			walk(v.Then)
			if v.Else != nil {
				walk(v.Else)
			}
		case *hir.While:
			walk(v.Body)
		case *hir.DoWhile:
			walk(v.Body)
		case *hir.Switch:
			for _, c := range v.Cases {
				walk(c)
			}
			if v.Default != nil {
				walk(v.Default)
			}
		case *hir.Try:
			walk(v.Body)
			walk(v.Catch)
		case *hir.Lock:
			walk(v.Body)
		}
	}
	for _, s := range stmts {
		walk(s)
	}
	return out
}
