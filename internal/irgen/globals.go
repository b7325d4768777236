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
	"strconv"
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/holyc-tools/holycc/internal/hir"
)

// declareGlobal installs one module-level variable. A constant initializer
// folds to an LLVM constant; static storage gets internal linkage;
// LinkageDecl-derived externs are declaration-only.
func (e *emitter) declareGlobal(g *hir.Global) error {
	if !e.mod.NamedGlobal(g.Name).IsNil() {
		return errf("duplicate global definition %q", g.Name)
	}
	typ := e.llvmType(g.Type)
	gv := llvm.AddGlobal(e.mod, typ, g.Name)

	switch g.Storage {
	case hir.StorageExternGlobal:
		gv.SetLinkage(llvm.ExternalLinkage)
		return nil
	case hir.StorageStaticGlobal:
		gv.SetLinkage(llvm.InternalLinkage)
	default:
		gv.SetLinkage(llvm.ExternalLinkage)
	}

	if g.Init != nil && g.ConstInit {
		if c, ok := e.foldConst(g.Init, g.Type); ok {
			gv.SetInitializer(c)
			return nil
		}
	}
	gv.SetInitializer(llvm.ConstNull(typ))
	return nil
}

// foldConst folds a constant-classified HIR expression into an LLVM
// constant value, for use as a global or static-local initializer.
func (e *emitter) foldConst(x hir.Expr, t string) (llvm.Value, bool) {
	switch v := x.(type) {
	case *hir.Lit:
		return e.constLit(v, t)
	case *hir.Unary:
		inner, ok := e.foldConst(v.X, v.X.ExprType())
		if !ok {
			return llvm.Value{}, false
		}
		switch v.Op {
		case "-":
			if isFloatType(t) {
				return llvm.ConstFNeg(inner), true
			}
			return llvm.ConstNeg(inner), true
		case "~":
			return llvm.ConstNot(inner), true
		case "+":
			return inner, true
		}
	case *hir.Cast:
		return e.foldConst(v.X, v.Type)
	case *hir.Comma:
		if len(v.Xs) == 0 {
			return llvm.Value{}, false
		}
		return e.foldConst(v.Xs[len(v.Xs)-1], t)
	case *hir.Binary:
		l, ok := e.foldConst(v.L, v.L.ExprType())
		if !ok {
			return llvm.Value{}, false
		}
		r, ok := e.foldConst(v.R, v.R.ExprType())
		if !ok {
			return llvm.Value{}, false
		}
		switch v.Op {
		case "+":
			return llvm.ConstAdd(l, r), true
		case "-":
			return llvm.ConstSub(l, r), true
		case "*":
			return llvm.ConstMul(l, r), true
		case "&":
			return llvm.ConstAnd(l, r), true
		case "|":
			return llvm.ConstOr(l, r), true
		case "^":
			return llvm.ConstXor(l, r), true
		case "<<":
			return llvm.ConstShl(l, r), true
		}
	}
	return llvm.Value{}, false
}

func (e *emitter) constLit(lit *hir.Lit, t string) (llvm.Value, bool) {
	if strings.HasPrefix(lit.Text, "\"") {
		s := strings.TrimSuffix(strings.TrimPrefix(lit.Text, "\""), "\"")
		strConst := e.ctx.ConstString(s, true)
		g := llvm.AddGlobal(e.mod, strConst.Type(), "")
		g.SetInitializer(strConst)
		g.SetLinkage(llvm.PrivateLinkage)
		g.SetUnnamedAddr(true)
		zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
		return llvm.ConstInBoundsGEP(g, []llvm.Value{zero, zero}), true
	}
	if isFloatType(t) {
		f, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			return llvm.Value{}, false
		}
		return llvm.ConstFloat(e.llvmType(t), f), true
	}
	n, err := strconv.ParseInt(strings.TrimRight(lit.Text, "uUlL"), 0, 64)
	if err != nil {
		un, uerr := strconv.ParseUint(strings.TrimRight(lit.Text, "uUlL"), 0, 64)
		if uerr != nil {
			return llvm.Value{}, false
		}
		return llvm.ConstInt(e.llvmType(t), un, false), true
	}
	return llvm.ConstInt(e.llvmType(t), uint64(n), true), true
}

func isFloatType(t string) bool { return t == "F64" }

// emitReflectionTable emits a private unnamed_addr constant array of
// {aggregate, field, type, annotations} C-string tuples,
// returning a pointer to its first element and its element count so the
// host-main wrapper can register it via hc_register_reflection_table.
func (e *emitter) emitReflectionTable(fields []hir.ReflectionField) (llvm.Value, int) {
	if len(fields) == 0 {
		return llvm.Value{}, 0
	}
	i8p := llvm.PointerType(e.ctx.Int8Type(), 0)
	entryType := e.ctx.StructType([]llvm.Type{i8p, i8p, i8p, i8p}, false)

	cstr := func(s string) llvm.Value {
		c := e.ctx.ConstString(s, true)
		g := llvm.AddGlobal(e.mod, c.Type(), "")
		g.SetInitializer(c)
		g.SetLinkage(llvm.PrivateLinkage)
		g.SetUnnamedAddr(true)
		zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
		return llvm.ConstInBoundsGEP(g, []llvm.Value{zero, zero})
	}

	var entries []llvm.Value
	for _, f := range fields {
		entries = append(entries, llvm.ConstNamedStruct(entryType, []llvm.Value{
			cstr(f.Aggregate), cstr(f.Field), cstr(f.Type), cstr(strings.Join(f.Annotations, ",")),
		}))
	}
	arr := llvm.ConstArray(entryType, entries)
	table := llvm.AddGlobal(e.mod, arr.Type(), "hc_reflection_table")
	table.SetInitializer(arr)
	table.SetLinkage(llvm.PrivateLinkage)
	table.SetUnnamedAddr(true)

	zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
	ptr := llvm.ConstInBoundsGEP(table, []llvm.Value{zero, zero})
	return ptr, len(entries)
}
