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

func (e *emitter) emitExpr(x hir.Expr) (llvm.Value, error) {
	switch v := x.(type) {
	case *hir.Lit:
		return e.emitLit(v)
	case *hir.Ident:
		return e.emitIdent(v)
	case *hir.Unary:
		return e.emitUnary(v)
	case *hir.Binary:
		return e.emitBinary(v)
	case *hir.Assign:
		return e.emitAssign(v)
	case *hir.Cast:
		return e.emitCast(v)
	case *hir.Lane:
		return e.emitLaneLoad(v)
	case *hir.Member:
		addr, _, err := e.lvalueAddr(v)
		if err != nil {
			return llvm.Value{}, err
		}
		return e.b.CreateLoad(addr, ""), nil
	case *hir.Index:
		addr, _, err := e.lvalueAddr(v)
		if err != nil {
			return llvm.Value{}, err
		}
		return e.b.CreateLoad(addr, ""), nil
	case *hir.Call:
		return e.emitCall(v)
	case *hir.Comma:
		var last llvm.Value
		for _, c := range v.Xs {
			val, err := e.emitExpr(c)
			if err != nil {
				return llvm.Value{}, err
			}
			last = val
		}
		return last, nil
	}
	return llvm.Value{}, errf("irgen: unhandled expression %T", x)
}

func (e *emitter) emitLit(lit *hir.Lit) (llvm.Value, error) {
	if strings.HasPrefix(lit.Text, "\"") {
		v, _ := e.constLit(lit, lit.Type)
		return v, nil
	}
	if lit.Type == "F64" {
		f, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			return llvm.Value{}, err
		}
		return llvm.ConstFloat(e.ctx.DoubleType(), f), nil
	}
	clean := strings.TrimRight(lit.Text, "uUlL")
	n, err := strconv.ParseInt(clean, 0, 64)
	if err != nil {
		un, uerr := strconv.ParseUint(clean, 0, 64)
		if uerr != nil {
			return llvm.Value{}, errf("malformed integer literal %q", lit.Text)
		}
		return llvm.ConstInt(e.llvmType(lit.Type), un, false), nil
	}
	return llvm.ConstInt(e.llvmType(lit.Type), uint64(n), true), nil
}

func (e *emitter) emitIdent(id *hir.Ident) (llvm.Value, error) {
	if addr, ok := e.lookup(id.Name); ok {
		return e.b.CreateLoad(addr, ""), nil
	}
	if g := e.mod.NamedGlobal(id.Name); !g.IsNil() {
		return e.b.CreateLoad(g, ""), nil
	}
	if f := e.mod.NamedFunction(id.Name); !f.IsNil() {
		return f, nil
	}
	return llvm.Value{}, errf("undeclared identifier %q", id.Name)
}

func (e *emitter) toBool(v llvm.Value) llvm.Value {
	if v.Type().TypeKind() == llvm.IntegerTypeKind && v.Type().IntTypeWidth() == 1 {
		return v
	}
	zero := llvm.ConstInt(v.Type(), 0, false)
	return e.b.CreateICmp(llvm.IntNE, v, zero, "")
}

// coerce adapts val to dst when they're not identical types: integer
// widths sign-extend/truncate, and int<->float convert per HolyC's
// implicit-conversion rules already validated in sema.
func (e *emitter) coerce(val llvm.Value, dst llvm.Type) llvm.Value {
	src := val.Type()
	if src == dst {
		return val
	}
	switch {
	case src.TypeKind() == llvm.IntegerTypeKind && dst.TypeKind() == llvm.IntegerTypeKind:
		if src.IntTypeWidth() < dst.IntTypeWidth() {
			return e.b.CreateSExt(val, dst, "")
		}
		return e.b.CreateTrunc(val, dst, "")
	case src.TypeKind() == llvm.IntegerTypeKind && dst.TypeKind() == llvm.DoubleTypeKind:
		return e.b.CreateSIToFP(val, dst, "")
	case src.TypeKind() == llvm.DoubleTypeKind && dst.TypeKind() == llvm.IntegerTypeKind:
		return e.b.CreateFPToSI(val, dst, "")
	case src.TypeKind() == llvm.PointerTypeKind && dst.TypeKind() == llvm.PointerTypeKind:
		return e.b.CreateBitCast(val, dst, "")
	case src.TypeKind() == llvm.PointerTypeKind && dst.TypeKind() == llvm.IntegerTypeKind:
		return e.b.CreatePtrToInt(val, dst, "")
	case src.TypeKind() == llvm.IntegerTypeKind && dst.TypeKind() == llvm.PointerTypeKind:
		return e.b.CreateIntToPtr(val, dst, "")
	}
	return val
}

func (e *emitter) emitUnary(u *hir.Unary) (llvm.Value, error) {
	switch u.Op {
	case "&":
		addr, _, err := e.lvalueAddr(u.X)
		if err != nil {
			return llvm.Value{}, err
		}
		return addr, nil
	case "*":
		ptr, err := e.emitExpr(u.X)
		if err != nil {
			return llvm.Value{}, err
		}
		return e.b.CreateLoad(ptr, ""), nil
	case "-":
		v, err := e.emitExpr(u.X)
		if err != nil {
			return llvm.Value{}, err
		}
		if u.Type == "F64" {
			return e.b.CreateFNeg(v, ""), nil
		}
		return e.b.CreateNeg(v, ""), nil
	case "~":
		v, err := e.emitExpr(u.X)
		if err != nil {
			return llvm.Value{}, err
		}
		return e.b.CreateNot(v, ""), nil
	case "!":
		v, err := e.emitExpr(u.X)
		if err != nil {
			return llvm.Value{}, err
		}
		cond := e.toBool(v)
		notCond := e.b.CreateNot(cond, "")
		return e.b.CreateZExt(notCond, e.ctx.Int64Type(), ""), nil
	case "+":
		return e.emitExpr(u.X)
	case "++", "--":
		return e.emitIncDec(u.X, u.Op == "++", true)
	}
	return llvm.Value{}, errf("irgen: unhandled unary operator %q", u.Op)
}

// emitIncDec implements prefix/postfix ++/--, routing through an atomic
// read-modify-write when inside a `lock` block.
func (e *emitter) emitIncDec(target hir.Expr, inc, prefix bool) (llvm.Value, error) {
	addr, elemType, err := e.lvalueAddr(target)
	if err != nil {
		return llvm.Value{}, err
	}
	one := llvm.ConstInt(e.llvmType(elemType), 1, false)
	op := llvm.AtomicRMWBinOpAdd
	if !inc {
		op = llvm.AtomicRMWBinOpSub
	}
	if e.inAtomic {
		old := e.b.CreateAtomicRMW(op, addr, one, llvm.AtomicOrderingSequentiallyConsistent, false)
		if prefix {
			if inc {
				return e.b.CreateAdd(old, one, ""), nil
			}
			return e.b.CreateSub(old, one, ""), nil
		}
		return old, nil
	}
	old := e.b.CreateLoad(addr, "")
	var next llvm.Value
	if inc {
		next = e.b.CreateAdd(old, one, "")
	} else {
		next = e.b.CreateSub(old, one, "")
	}
	e.b.CreateStore(next, addr)
	if prefix {
		return next, nil
	}
	return old, nil
}

func (e *emitter) emitBinary(b *hir.Binary) (llvm.Value, error) {
	l, err := e.emitExpr(b.L)
	if err != nil {
		return llvm.Value{}, err
	}
	switch b.Op {
	case "&&":
		return e.emitShortCircuit(b, true)
	case "||":
		return e.emitShortCircuit(b, false)
	}
	r, err := e.emitExpr(b.R)
	if err != nil {
		return llvm.Value{}, err
	}
	if l.Type() != r.Type() {
		r = e.coerce(r, l.Type())
	}
	isFloat := b.Type == "F64" || l.Type().TypeKind() == llvm.DoubleTypeKind

	switch b.Op {
	case "+":
		if isFloat {
			return e.b.CreateFAdd(l, r, ""), nil
		}
		return e.b.CreateAdd(l, r, ""), nil
	case "-":
		if isFloat {
			return e.b.CreateFSub(l, r, ""), nil
		}
		return e.b.CreateSub(l, r, ""), nil
	case "*":
		if isFloat {
			return e.b.CreateFMul(l, r, ""), nil
		}
		return e.b.CreateMul(l, r, ""), nil
	case "/":
		if isFloat {
			return e.b.CreateFDiv(l, r, ""), nil
		}
		return e.b.CreateSDiv(l, r, ""), nil
	case "%":
		return e.b.CreateSRem(l, r, ""), nil
	case "&":
		return e.b.CreateAnd(l, r, ""), nil
	case "|":
		return e.b.CreateOr(l, r, ""), nil
	case "^":
		return e.b.CreateXor(l, r, ""), nil
	case "<<":
		return e.b.CreateShl(l, r, ""), nil
	case ">>":
		return e.b.CreateAShr(l, r, ""), nil
	case "==":
		return e.cmp(l, r, isFloat, llvm.IntEQ, llvm.FloatOEQ)
	case "!=":
		return e.cmp(l, r, isFloat, llvm.IntNE, llvm.FloatONE)
	case "<":
		return e.cmp(l, r, isFloat, llvm.IntSLT, llvm.FloatOLT)
	case "<=":
		return e.cmp(l, r, isFloat, llvm.IntSLE, llvm.FloatOLE)
	case ">":
		return e.cmp(l, r, isFloat, llvm.IntSGT, llvm.FloatOGT)
	case ">=":
		return e.cmp(l, r, isFloat, llvm.IntSGE, llvm.FloatOGE)
	}
	return llvm.Value{}, errf("irgen: unhandled binary operator %q", b.Op)
}

func (e *emitter) cmp(l, r llvm.Value, isFloat bool, iop llvm.IntPredicate, fop llvm.FloatPredicate) (llvm.Value, error) {
	var bit llvm.Value
	if isFloat {
		bit = e.b.CreateFCmp(fop, l, r, "")
	} else {
		bit = e.b.CreateICmp(iop, l, r, "")
	}
	return e.b.CreateZExt(bit, e.ctx.Int64Type(), ""), nil
}

// emitShortCircuit lowers && / || with real branching rather than eager
// evaluation of both sides.
func (e *emitter) emitShortCircuit(b *hir.Binary, isAnd bool) (llvm.Value, error) {
	lhs, err := e.emitExpr(b.L)
	if err != nil {
		return llvm.Value{}, err
	}
	lhsBool := e.toBool(lhs)
	rhsBB := llvm.AddBasicBlock(e.curFn, "sc.rhs")
	mergeBB := llvm.AddBasicBlock(e.curFn, "sc.merge")
	startBB := e.b.GetInsertBlock()
	if isAnd {
		e.b.CreateCondBr(lhsBool, rhsBB, mergeBB)
	} else {
		e.b.CreateCondBr(lhsBool, mergeBB, rhsBB)
	}

	e.b.SetInsertPointAtEnd(rhsBB)
	rhs, err := e.emitExpr(b.R)
	if err != nil {
		return llvm.Value{}, err
	}
	rhsBool := e.toBool(rhs)
	rhsEndBB := e.b.GetInsertBlock()
	e.b.CreateBr(mergeBB)

	e.b.SetInsertPointAtEnd(mergeBB)
	phi := e.b.CreatePHI(e.ctx.Int1Type(), "")
	phi.AddIncoming([]llvm.Value{lhsBool, rhsBool}, []llvm.BasicBlock{startBB, rhsEndBB})
	return e.b.CreateZExt(phi, e.ctx.Int64Type(), ""), nil
}

func (e *emitter) emitCast(c *hir.Cast) (llvm.Value, error) {
	v, err := e.emitExpr(c.X)
	if err != nil {
		return llvm.Value{}, err
	}
	return e.coerce(v, e.llvmType(c.To)), nil
}

// lvalueAddr resolves the memory address an assignable expression refers
// to, along with its element type.
func (e *emitter) lvalueAddr(x hir.Expr) (llvm.Value, string, error) {
	switch v := x.(type) {
	case *hir.Ident:
		if addr, ok := e.lookup(v.Name); ok {
			return addr, v.Type, nil
		}
		if g := e.mod.NamedGlobal(v.Name); !g.IsNil() {
			return g, v.Type, nil
		}
		return llvm.Value{}, "", errf("undeclared identifier %q", v.Name)
	case *hir.Unary:
		if v.Op == "*" {
			ptr, err := e.emitExpr(v.X)
			if err != nil {
				return llvm.Value{}, "", err
			}
			return ptr, v.Type, nil
		}
	case *hir.Member:
		baseAddr, baseType, err := e.lvalueAddr(v.Base)
		if err != nil {
			// base is itself a pointer value (e.g. p->field): evaluate it
			// directly rather than taking its address.
			baseVal, err2 := e.emitExpr(v.Base)
			if err2 != nil {
				return llvm.Value{}, "", err
			}
			return e.memberGEP(baseVal, strings.TrimRight(v.Base.ExprType(), "*"), v.Field)
		}
		_ = baseType
		return e.memberGEP(baseAddr, aggName(v.Base.ExprType()), v.Field)
	case *hir.Index:
		baseVal, err := e.emitExpr(v.Base)
		if err != nil {
			return llvm.Value{}, "", err
		}
		idx, err := e.emitExpr(v.Idx)
		if err != nil {
			return llvm.Value{}, "", err
		}
		elemType := strings.TrimSuffix(v.Type, "")
		ptr := e.b.CreateInBoundsGEP(baseVal, []llvm.Value{idx}, "")
		return ptr, elemType, nil
	}
	return llvm.Value{}, "", errf("irgen: expression is not assignable")
}

func aggName(t string) string { return strings.TrimRight(t, "*") }

func (e *emitter) memberGEP(structAddr llvm.Value, aggregate, field string) (llvm.Value, string, error) {
	layout, ok := e.aggInfo[aggregate]
	if !ok {
		return llvm.Value{}, "", errf("irgen: unknown aggregate %q", aggregate)
	}
	info, ok := layout.fields[field]
	if !ok {
		return llvm.Value{}, "", errf("irgen: aggregate %q has no field %q", aggregate, field)
	}
	zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
	idx := llvm.ConstInt(e.ctx.Int32Type(), uint64(info.index), false)
	ptr := e.b.CreateInBoundsGEP(structAddr, []llvm.Value{zero, idx}, "")
	return ptr, info.typ, nil
}

func (e *emitter) emitAssign(a *hir.Assign) (llvm.Value, error) {
	if lane, ok := a.L.(*hir.Lane); ok && a.Op == "=" {
		return e.emitLaneStore(lane, a.R)
	}
	addr, elemType, err := e.lvalueAddr(a.L)
	if err != nil {
		return llvm.Value{}, err
	}
	rhs, err := e.emitExpr(a.R)
	if err != nil {
		return llvm.Value{}, err
	}
	typ := e.llvmType(elemType)
	rhs = e.coerce(rhs, typ)

	if a.Op == "=" {
		if e.inAtomic {
			e.b.CreateAtomicRMW(llvm.AtomicRMWBinOpXchg, addr, rhs, llvm.AtomicOrderingSequentiallyConsistent, false)
			return rhs, nil
		}
		e.b.CreateStore(rhs, addr)
		return rhs, nil
	}

	if e.inAtomic {
		if op, ok := atomicOpFor(a.Op); ok {
			old := e.b.CreateAtomicRMW(op, addr, rhs, llvm.AtomicOrderingSequentiallyConsistent, false)
			return e.applyOp(a.Op, old, rhs, typ), nil
		}
		return e.emitAtomicCmpXchgLoop(a.Op, addr, rhs, typ), nil
	}
	old := e.b.CreateLoad(addr, "")
	next := e.applyOp(a.Op, old, rhs, typ)
	e.b.CreateStore(next, addr)
	return next, nil
}

// emitAtomicCmpXchgLoop handles compound-assignment operators with no
// native atomicrmw opcode (*=, /=, %=, <<=, >>=) inside a lock block: load
// the current value, compute the candidate with the ordinary binary op,
// and retry via cmpxchg until it wins the race.
func (e *emitter) emitAtomicCmpXchgLoop(op string, addr, rhs llvm.Value, typ llvm.Type) llvm.Value {
	loadBB := e.b.GetInsertBlock()
	loopBB := llvm.AddBasicBlock(e.curFn, "atomic.cmpxchg.loop")
	doneBB := llvm.AddBasicBlock(e.curFn, "atomic.cmpxchg.done")

	initial := e.b.CreateLoad(addr, "")
	e.b.CreateBr(loopBB)

	e.b.SetInsertPointAtEnd(loopBB)
	cur := e.b.CreatePHI(typ, "atomic.cur")
	next := e.applyOp(op, cur, rhs, typ)
	pair := e.b.CreateAtomicCmpXchg(addr, cur, next,
		llvm.AtomicOrderingSequentiallyConsistent, llvm.AtomicOrderingSequentiallyConsistent, false)
	prevVal := e.b.CreateExtractValue(pair, 0, "")
	success := e.b.CreateExtractValue(pair, 1, "")
	loopEndBB := e.b.GetInsertBlock()
	e.b.CreateCondBr(success, doneBB, loopBB)
	cur.AddIncoming([]llvm.Value{initial, prevVal}, []llvm.BasicBlock{loadBB, loopEndBB})

	e.b.SetInsertPointAtEnd(doneBB)
	result := e.b.CreatePHI(typ, "atomic.result")
	result.AddIncoming([]llvm.Value{next}, []llvm.BasicBlock{loopEndBB})
	return result
}

func atomicOpFor(op string) (llvm.AtomicRMWBinOp, bool) {
	switch op {
	case "+":
		return llvm.AtomicRMWBinOpAdd, true
	case "-":
		return llvm.AtomicRMWBinOpSub, true
	case "&":
		return llvm.AtomicRMWBinOpAnd, true
	case "|":
		return llvm.AtomicRMWBinOpOr, true
	case "^":
		return llvm.AtomicRMWBinOpXor, true
	}
	return 0, false
}

func (e *emitter) applyOp(op string, l, r llvm.Value, typ llvm.Type) llvm.Value {
	isFloat := typ.TypeKind() == llvm.DoubleTypeKind
	switch op {
	case "+":
		if isFloat {
			return e.b.CreateFAdd(l, r, "")
		}
		return e.b.CreateAdd(l, r, "")
	case "-":
		if isFloat {
			return e.b.CreateFSub(l, r, "")
		}
		return e.b.CreateSub(l, r, "")
	case "*":
		if isFloat {
			return e.b.CreateFMul(l, r, "")
		}
		return e.b.CreateMul(l, r, "")
	case "/":
		if isFloat {
			return e.b.CreateFDiv(l, r, "")
		}
		return e.b.CreateSDiv(l, r, "")
	case "%":
		return e.b.CreateSRem(l, r, "")
	case "&":
		return e.b.CreateAnd(l, r, "")
	case "|":
		return e.b.CreateOr(l, r, "")
	case "^":
		return e.b.CreateXor(l, r, "")
	case "<<":
		return e.b.CreateShl(l, r, "")
	case ">>":
		return e.b.CreateAShr(l, r, "")
	}
	return r
}

// emitLaneLoad implements value.<sel>[i]: mask the index to
// the base width, shift by i*laneBits, mask to laneBits, and sign/zero
// extend back to i64 per the lane's signedness.
func (e *emitter) emitLaneLoad(lane *hir.Lane) (llvm.Value, error) {
	base, err := e.emitExpr(lane.Base)
	if err != nil {
		return llvm.Value{}, err
	}
	idx, err := e.emitExpr(lane.Idx)
	if err != nil {
		return llvm.Value{}, err
	}
	baseType := base.Type()
	laneBits := uint64(lane.LaneBits)
	idx = e.coerce(idx, baseType)
	laneBitsConst := llvm.ConstInt(baseType, laneBits, false)
	shift := e.b.CreateMul(idx, laneBitsConst, "")
	maskVal := (uint64(1) << laneBits) - 1
	mask := llvm.ConstInt(baseType, maskVal, false)

	shifted := e.b.CreateLShr(base, shift, "")
	masked := e.b.CreateAnd(shifted, mask, "")

	i64 := e.ctx.Int64Type()
	truncated := e.b.CreateTrunc(masked, e.laneIntType(laneBits), "")
	if lane.Signed {
		return e.b.CreateSExt(truncated, i64, ""), nil
	}
	return e.b.CreateZExt(truncated, i64, ""), nil
}

func (e *emitter) laneIntType(bits uint64) llvm.Type {
	switch bits {
	case 8:
		return e.ctx.Int8Type()
	case 16:
		return e.ctx.Int16Type()
	case 32:
		return e.ctx.Int32Type()
	default:
		return e.ctx.Int64Type()
	}
}

// emitLaneStore implements value.<sel>[i] = rhs: clear the shifted mask
// from base, OR in (rhs & mask) << shift, then write back through the
// underlying lvalue.
func (e *emitter) emitLaneStore(lane *hir.Lane, rhs hir.Expr) (llvm.Value, error) {
	addr, elemType, err := e.lvalueAddr(lane.Base)
	if err != nil {
		return llvm.Value{}, err
	}
	baseType := e.llvmType(elemType)
	base := e.b.CreateLoad(addr, "")

	idx, err := e.emitExpr(lane.Idx)
	if err != nil {
		return llvm.Value{}, err
	}
	idx = e.coerce(idx, baseType)

	rhsVal, err := e.emitExpr(rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	rhsVal = e.coerce(rhsVal, baseType)

	laneBits := uint64(lane.LaneBits)
	laneBitsConst := llvm.ConstInt(baseType, laneBits, false)
	shift := e.b.CreateMul(idx, laneBitsConst, "")
	maskVal := (uint64(1) << laneBits) - 1
	mask := llvm.ConstInt(baseType, maskVal, false)
	shiftedMask := e.b.CreateShl(mask, shift, "")
	clearMask := e.b.CreateNot(shiftedMask, "")

	cleared := e.b.CreateAnd(base, clearMask, "")
	maskedRHS := e.b.CreateAnd(rhsVal, mask, "")
	shiftedRHS := e.b.CreateShl(maskedRHS, shift, "")
	result := e.b.CreateOr(cleared, shiftedRHS, "")

	e.b.CreateStore(result, addr)
	return rhsVal, nil
}

// emitCall lowers both direct named calls (declared function type, each
// argument cast to its parameter type) and indirect calls (function type
// synthesized from the callee's pointer-to-function value).
func (e *emitter) emitCall(c *hir.Call) (llvm.Value, error) {
	if id, ok := c.Callee.(*hir.Ident); ok {
		if fn := e.mod.NamedFunction(id.Name); !fn.IsNil() {
			var args []llvm.Value
			paramTypes := fn.Type().ElementType().ParamTypes()
			for i, a := range c.Args {
				v, err := e.emitExpr(a)
				if err != nil {
					return llvm.Value{}, err
				}
				if i < len(paramTypes) {
					v = e.coerce(v, paramTypes[i])
				}
				args = append(args, v)
			}
			return e.b.CreateCall(fn, args, ""), nil
		}
	}
	callee, err := e.emitExpr(c.Callee)
	if err != nil {
		return llvm.Value{}, err
	}
	var args []llvm.Value
	for _, a := range c.Args {
		v, err := e.emitExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}
		args = append(args, v)
	}
	return e.b.CreateCall(callee, args, ""), nil
}
