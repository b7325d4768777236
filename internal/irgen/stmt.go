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

func (e *emitter) emitStmts(stmts []hir.Stmt) error {
	for _, s := range stmts {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) hasTerminator() bool {
	bb := e.b.GetInsertBlock()
	if bb.IsNil() {
		return false
	}
	last := bb.LastInstruction()
	return !last.IsNil() && !last.IsATerminatorInst().IsNil()
}

func (e *emitter) emitStmt(s hir.Stmt) error {
	switch v := s.(type) {
	case *hir.Block:
		e.pushScope()
		defer e.popScope()
		return e.emitStmts(v.Stmts)

	case *hir.DeclStmt:
		typ := e.llvmType(v.Type)
		alloc := e.b.CreateAlloca(typ, v.Name)
		e.declare(v.Name, alloc)
		if v.Init != nil {
			val, err := e.emitExpr(v.Init)
			if err != nil {
				return err
			}
			e.b.CreateStore(e.coerce(val, typ), alloc)
		}
		return nil

	case *hir.ExprStmt:
		_, err := e.emitExpr(v.X)
		return err

	case *hir.If:
		cond, err := e.emitExpr(v.Cond)
		if err != nil {
			return err
		}
		cond = e.toBool(cond)
		thenBB := llvm.AddBasicBlock(e.curFn, "if.then")
		mergeBB := llvm.AddBasicBlock(e.curFn, "if.end")
		elseBB := mergeBB
		if v.Else != nil {
			elseBB = llvm.AddBasicBlock(e.curFn, "if.else")
		}
		e.b.CreateCondBr(cond, thenBB, elseBB)

		e.b.SetInsertPointAtEnd(thenBB)
		if err := e.emitStmt(v.Then); err != nil {
			return err
		}
		if !e.hasTerminator() {
			e.b.CreateBr(mergeBB)
		}

		if v.Else != nil {
			e.b.SetInsertPointAtEnd(elseBB)
			if err := e.emitStmt(v.Else); err != nil {
				return err
			}
			if !e.hasTerminator() {
				e.b.CreateBr(mergeBB)
			}
		}
		e.b.SetInsertPointAtEnd(mergeBB)
		return nil

	case *hir.While:
		headBB := llvm.AddBasicBlock(e.curFn, "while.head")
		bodyBB := llvm.AddBasicBlock(e.curFn, "while.body")
		endBB := llvm.AddBasicBlock(e.curFn, "while.end")
		e.b.CreateBr(headBB)

		e.b.SetInsertPointAtEnd(headBB)
		cond, err := e.emitExpr(v.Cond)
		if err != nil {
			return err
		}
		e.b.CreateCondBr(e.toBool(cond), bodyBB, endBB)

		e.b.SetInsertPointAtEnd(bodyBB)
		e.endBB = append(e.endBB, endBB)
		err = e.emitStmt(v.Body)
		e.endBB = e.endBB[:len(e.endBB)-1]
		if err != nil {
			return err
		}
		if !e.hasTerminator() {
			e.b.CreateBr(headBB)
		}
		e.b.SetInsertPointAtEnd(endBB)
		return nil

	case *hir.DoWhile:
		bodyBB := llvm.AddBasicBlock(e.curFn, "do.body")
		condBB := llvm.AddBasicBlock(e.curFn, "do.cond")
		endBB := llvm.AddBasicBlock(e.curFn, "do.end")
		e.b.CreateBr(bodyBB)

		e.b.SetInsertPointAtEnd(bodyBB)
		e.endBB = append(e.endBB, endBB)
		err := e.emitStmt(v.Body)
		e.endBB = e.endBB[:len(e.endBB)-1]
		if err != nil {
			return err
		}
		if !e.hasTerminator() {
			e.b.CreateBr(condBB)
		}

		e.b.SetInsertPointAtEnd(condBB)
		cond, err := e.emitExpr(v.Cond)
		if err != nil {
			return err
		}
		e.b.CreateCondBr(e.toBool(cond), bodyBB, endBB)
		e.b.SetInsertPointAtEnd(endBB)
		return nil

	case *hir.Switch:
		return e.emitSwitch(v)

	case *hir.Return:
		if v.X == nil {
			e.b.CreateRetVoid()
			return nil
		}
		val, err := e.emitExpr(v.X)
		if err != nil {
			return err
		}
		e.b.CreateRet(e.coerce(val, e.llvmType(e.curRet)))
		return nil

	case *hir.Break:
		if len(e.endBB) == 0 {
			return errf("break outside of a loop or switch")
		}
		e.b.CreateBr(e.endBB[len(e.endBB)-1])
		return nil

	case *hir.Goto:
		bb, ok := e.labelBlocks[v.Label]
		if !ok {
			return errf("undefined label %q", v.Label)
		}
		e.b.CreateBr(bb)
		return nil

	case *hir.Label:
		bb := e.labelBlocks[v.Name]
		if !e.hasTerminator() {
			e.b.CreateBr(bb)
		}
		e.b.SetInsertPointAtEnd(bb)
		return nil

	case *hir.Try:
		return e.emitTry(v)

	case *hir.Throw:
		val, err := e.emitExpr(v.X)
		if err != nil {
			return err
		}
		throwFn := e.mod.NamedFunction("hc_throw_i64")
		e.b.CreateCall(throwFn, []llvm.Value{e.coerce(val, e.ctx.Int64Type())}, "")
		e.b.CreateUnreachable()
		return nil

	case *hir.Lock:
		prev := e.inAtomic
		e.inAtomic = true
		err := e.emitStmt(v.Body)
		e.inAtomic = prev
		return err

	case *hir.Asm:
		return e.emitAsm(v)

	case *hir.Print:
		return e.emitPrint(v)

	case *hir.PrintChar:
		return e.emitPrintChar(v)
	}
	return nil
}

// emitSwitch lowers the parallel CaseFlags/CaseBegin/CaseEnd/Cases arrays
// into chained comparisons: equality for singleton cases, a two-sided
// range check for ranges, falling through to the next case body when one
// lacks its own terminator.
func (e *emitter) emitSwitch(sw *hir.Switch) error {
	cond, err := e.emitExpr(sw.Cond)
	if err != nil {
		return err
	}
	endBB := llvm.AddBasicBlock(e.curFn, "switch.end")
	e.endBB = append(e.endBB, endBB)
	defer func() { e.endBB = e.endBB[:len(e.endBB)-1] }()

	n := len(sw.Cases)
	bodyBBs := make([]llvm.BasicBlock, n)
	for i := range bodyBBs {
		bodyBBs[i] = llvm.AddBasicBlock(e.curFn, "case.body")
	}
	defaultBB := endBB
	if sw.Default != nil {
		defaultBB = llvm.AddBasicBlock(e.curFn, "switch.default")
	}

	checkBBs := make([]llvm.BasicBlock, n)
	for i := range checkBBs {
		checkBBs[i] = llvm.AddBasicBlock(e.curFn, "case.check")
	}
	if n > 0 {
		e.b.CreateBr(checkBBs[0])
	} else {
		e.b.CreateBr(defaultBB)
	}

	for i := 0; i < n; i++ {
		e.b.SetInsertPointAtEnd(checkBBs[i])
		begin, err := e.emitExpr(sw.CaseBegin[i])
		if err != nil {
			return err
		}
		var matched llvm.Value
		if sw.CaseFlags[i]&2 != 0 {
			end, err := e.emitExpr(sw.CaseEnd[i])
			if err != nil {
				return err
			}
			lo := e.b.CreateICmp(llvm.IntSGE, cond, begin, "")
			hi := e.b.CreateICmp(llvm.IntSLE, cond, end, "")
			matched = e.b.CreateAnd(lo, hi, "")
		} else {
			matched = e.b.CreateICmp(llvm.IntEQ, cond, begin, "")
		}
		next := defaultBB
		if i+1 < n {
			next = checkBBs[i+1]
		}
		e.b.CreateCondBr(matched, bodyBBs[i], next)
	}

	for i := 0; i < n; i++ {
		e.b.SetInsertPointAtEnd(bodyBBs[i])
		if err := e.emitStmt(sw.Cases[i]); err != nil {
			return err
		}
		if !e.hasTerminator() {
			if i+1 < n {
				e.b.CreateBr(bodyBBs[i+1])
			} else if sw.Default != nil {
				e.b.CreateBr(defaultBB)
			} else {
				e.b.CreateBr(endBB)
			}
		}
	}

	if sw.Default != nil {
		e.b.SetInsertPointAtEnd(defaultBB)
		if err := e.emitStmt(sw.Default); err != nil {
			return err
		}
		if !e.hasTerminator() {
			e.b.CreateBr(endBB)
		}
	}

	e.b.SetInsertPointAtEnd(endBB)
	return nil
}

// emitTry pushes a runtime-opaque frame alloca, calls hc_try_push then
// _setjmp: a zero return runs the try body then hc_try_pop, a non-zero
// return runs the catch body.
func (e *emitter) emitTry(t *hir.Try) error {
	frameType := llvm.ArrayType(e.ctx.Int8Type(), 200)
	frame := e.b.CreateAlloca(frameType, "try.frame")
	i8p := llvm.PointerType(e.ctx.Int8Type(), 0)
	framePtr := e.b.CreateBitCast(frame, i8p, "")

	e.b.CreateCall(e.mod.NamedFunction("hc_try_push"), []llvm.Value{framePtr}, "")
	setjmpRes := e.b.CreateCall(e.mod.NamedFunction("_setjmp"), []llvm.Value{framePtr}, "")
	isZero := e.b.CreateICmp(llvm.IntEQ, setjmpRes, llvm.ConstInt(e.ctx.Int32Type(), 0, false), "")

	tryBB := llvm.AddBasicBlock(e.curFn, "try.body")
	catchBB := llvm.AddBasicBlock(e.curFn, "try.catch")
	endBB := llvm.AddBasicBlock(e.curFn, "try.end")
	e.b.CreateCondBr(isZero, tryBB, catchBB)

	e.b.SetInsertPointAtEnd(tryBB)
	e.tryFrames = append(e.tryFrames, framePtr)
	err := e.emitStmt(t.Body)
	e.tryFrames = e.tryFrames[:len(e.tryFrames)-1]
	if err != nil {
		return err
	}
	if !e.hasTerminator() {
		e.b.CreateCall(e.mod.NamedFunction("hc_try_pop"), []llvm.Value{framePtr}, "")
		e.b.CreateBr(endBB)
	}

	e.b.SetInsertPointAtEnd(catchBB)
	if err := e.emitStmt(t.Catch); err != nil {
		return err
	}
	if !e.hasTerminator() {
		e.b.CreateBr(endBB)
	}

	e.b.SetInsertPointAtEnd(endBB)
	return nil
}

// emitAsm lowers the `asm { ... }` raw-block form as an in-function
// inline-asm call with no constraints, and the asm(template, cstr, ...)
// form as a constrained inline-asm call with its operand values.
func (e *emitter) emitAsm(a *hir.Asm) error {
	if a.Block {
		fnType := llvm.FunctionType(e.ctx.VoidType(), nil, false)
		asmFn := llvm.InlineAsm(fnType, a.Template, "", true, false, 0)
		e.b.CreateCall(asmFn, nil, "")
		return nil
	}
	var argTypes []llvm.Type
	var args []llvm.Value
	var constraints []string
	for i, c := range a.Constraints {
		constraints = append(constraints, c)
		if a.Operands[i] == nil {
			continue
		}
		v, err := e.emitExpr(a.Operands[i])
		if err != nil {
			return err
		}
		argTypes = append(argTypes, v.Type())
		args = append(args, v)
	}
	fnType := llvm.FunctionType(e.ctx.VoidType(), argTypes, false)
	constraintStr := ""
	for i, c := range constraints {
		if i > 0 {
			constraintStr += ","
		}
		constraintStr += c
	}
	asmFn := llvm.InlineAsm(fnType, a.Template, constraintStr, true, false, 0)
	e.b.CreateCall(asmFn, args, "")
	return nil
}

// emitPrint lowers the literal-no-args fast path directly to
// hc_print_fmt(format, null, 0); otherwise every argument is packed into an
// i64 array alloca'd at the current insertion point (floats bitcast into
// i64) and passed as
// hc_print_fmt(format, arg_ptr, count).
func (e *emitter) emitPrint(p *hir.Print) error {
	fmtVal, err := e.emitExpr(p.Format)
	if err != nil {
		return err
	}
	i64 := e.ctx.Int64Type()
	printFn := e.mod.NamedFunction("hc_print_fmt")

	if len(p.Args) == 0 {
		nullPtr := llvm.ConstPointerNull(llvm.PointerType(i64, 0))
		e.b.CreateCall(printFn, []llvm.Value{fmtVal, nullPtr, llvm.ConstInt(i64, 0, false)}, "")
		return nil
	}

	arr := e.b.CreateAlloca(llvm.ArrayType(i64, len(p.Args)), "print.args")
	for idx, arg := range p.Args {
		if arg == nil {
			continue
		}
		v, err := e.emitExpr(arg)
		if err != nil {
			return err
		}
		packed := e.packArg(v, arg.ExprType())
		zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
		idxv := llvm.ConstInt(e.ctx.Int32Type(), uint64(idx), false)
		slot := e.b.CreateInBoundsGEP(arr, []llvm.Value{zero, idxv}, "")
		e.b.CreateStore(packed, slot)
	}
	zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
	zero2 := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
	base := e.b.CreateInBoundsGEP(arr, []llvm.Value{zero, zero2}, "")
	e.b.CreateCall(printFn, []llvm.Value{fmtVal, base, llvm.ConstInt(i64, uint64(len(p.Args)), false)}, "")
	return nil
}

// emitPrintChar lowers a bare char-literal print directly to
// hc_put_char(ch), bypassing the hc_print_fmt format path entirely.
func (e *emitter) emitPrintChar(p *hir.PrintChar) error {
	v, err := e.emitExpr(p.X)
	if err != nil {
		return err
	}
	putCharFn := e.mod.NamedFunction("hc_put_char")
	e.b.CreateCall(putCharFn, []llvm.Value{e.coerce(v, e.ctx.Int64Type())}, "")
	return nil
}

// packArg converts v into an i64 slot value: float types are bitcast
// (preserving bits for the runtime's %f family), pointers are
// ptrtoint'd, and narrower integers are sign-extended.
func (e *emitter) packArg(v llvm.Value, t string) llvm.Value {
	i64 := e.ctx.Int64Type()
	switch {
	case t == "F64":
		return e.b.CreateBitCast(v, i64, "")
	case v.Type().TypeKind() == llvm.PointerTypeKind:
		return e.b.CreatePtrToInt(v, i64, "")
	case v.Type().IntTypeWidth() < 64:
		return e.b.CreateSExt(v, i64, "")
	default:
		return v
	}
}
