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
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/holyc-tools/holycc/internal/hir"
)

// llvmType maps a HolyC type string onto an LLVM type:
// U0 -> void, Bool -> i1, I8/U8 -> i8 ... I64/U64 -> i64, any trailing '*'
// -> opaque pointer, aggregate names -> the registered struct type.
func (e *emitter) llvmType(t string) llvm.Type {
	if strings.HasSuffix(t, "*") {
		return llvm.PointerType(e.ctx.Int8Type(), 0)
	}
	switch t {
	case "U0", "":
		return e.ctx.VoidType()
	case "Bool":
		return e.ctx.Int1Type()
	case "I8", "U8":
		return e.ctx.Int8Type()
	case "I16", "U16":
		return e.ctx.Int16Type()
	case "I32", "U32":
		return e.ctx.Int32Type()
	case "I64", "U64":
		return e.ctx.Int64Type()
	case "F64":
		return e.ctx.DoubleType()
	}
	if st, ok := e.aggTypes[t]; ok {
		return st
	}
	// Unknown / function-identifier pseudo-types fold to i64 so that
	// codegen never has to special-case an unresolved name.
	return e.ctx.Int64Type()
}

// declareAggregate creates the (possibly opaque) named struct type so that
// self- and mutually-referential aggregates can resolve pointer fields
// before any body is populated.
func (e *emitter) declareAggregate(name string, agg *hir.Aggregate) {
	e.aggTypes[name] = e.ctx.StructCreateNamed(name)
}

// buildAggregateBody fills in a previously declared struct's body. Unions
// collapse to a single-field struct whose element is the largest member by
// size, matching the estimate used in sema.
func (e *emitter) buildAggregateBody(name string, agg *hir.Aggregate) error {
	layout := &aggLayout{union: agg.Union, fields: make(map[string]fieldInfo)}
	st := e.aggTypes[name]

	if agg.Union {
		widest := ""
		widestSize := -1
		for _, f := range agg.Fields {
			if f.Size > widestSize {
				widest, widestSize = f.Type, f.Size
			}
		}
		st.StructSetBody([]llvm.Type{e.llvmType(widest)}, false)
		for _, f := range agg.Fields {
			layout.fields[f.Name] = fieldInfo{index: 0, typ: f.Type}
			layout.order = append(layout.order, f.Name)
		}
		e.aggInfo[name] = layout
		return nil
	}

	var elems []llvm.Type
	for i, f := range agg.Fields {
		elems = append(elems, e.llvmType(f.Type))
		layout.fields[f.Name] = fieldInfo{index: i, typ: f.Type}
		layout.order = append(layout.order, f.Name)
	}
	st.StructSetBody(elems, false)
	e.aggInfo[name] = layout
	return nil
}

// fnLLVMType builds the LLVM function type for a return type and ordered
// parameter types.
func (e *emitter) fnLLVMType(ret string, params []string, variadic bool) llvm.Type {
	var ptypes []llvm.Type
	for _, p := range params {
		ptypes = append(ptypes, e.llvmType(p))
	}
	return llvm.FunctionType(e.llvmType(ret), ptypes, variadic)
}
