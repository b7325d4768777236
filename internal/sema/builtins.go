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

package sema

import "github.com/holyc-tools/holycc/internal/types"

// seedBuiltinSymbols pre-declares TempleOS-visible globals
// into the root scope so HolyC programs can reference them without a local
// definition.
func seedBuiltinSymbols(root *types.Scope) {
	builtinGlobals := []types.Symbol{
		{Name: "TRUE", Type: types.Bool, Kind: types.SymGlobal},
		{Name: "FALSE", Type: types.Bool, Kind: types.SymGlobal},
		{Name: "NULL", Type: types.Ref(types.U0), Kind: types.SymGlobal},
		{Name: "YorN", Type: types.Bool, Kind: types.SymGlobal},
		{Name: "tS", Type: types.Ref(types.U8), Kind: types.SymGlobal},
		{Name: "RED", Type: types.I64, Kind: types.SymGlobal},
		{Name: "Fs", Type: types.Ref("FsCtx"), Kind: types.SymGlobal},
		{Name: "Gs", Type: types.Ref("FsCtx"), Kind: types.SymGlobal},
	}
	for i := range builtinGlobals {
		root.Declare(&builtinGlobals[i])
	}
}

// seedBuiltinAggregates pre-declares the runtime classes used by the
// reflection layer: FsCtx, CHashClass, CMemberLst.
func seedBuiltinAggregates(aggs map[string]*types.Aggregate) {
	aggs["FsCtx"] = &types.Aggregate{
		Name: "FsCtx",
		Fields: []types.Field{
			{Name: "next_fs", Type: types.Ref("FsCtx"), Offset: 0, Size: 8},
			{Name: "task", Type: types.Ref(types.U0), Offset: 8, Size: 8},
			{Name: "flags", Type: types.I64, Offset: 16, Size: 8},
		},
		Size: 24,
	}
	aggs["CHashClass"] = &types.Aggregate{
		Name: "CHashClass",
		Fields: []types.Field{
			{Name: "next", Type: types.Ref("CHashClass"), Offset: 0, Size: 8},
			{Name: "str", Type: types.Ref(types.U8), Offset: 8, Size: 8},
			{Name: "hash", Type: types.I64, Offset: 16, Size: 8},
			{Name: "user_data", Type: types.I64, Offset: 24, Size: 8},
		},
		Size: 32,
	}
	aggs["CMemberLst"] = &types.Aggregate{
		Name: "CMemberLst",
		Fields: []types.Field{
			{Name: "next", Type: types.Ref("CMemberLst"), Offset: 0, Size: 8},
			{Name: "name", Type: types.Ref(types.U8), Offset: 8, Size: 8},
			{Name: "type", Type: types.I64, Offset: 16, Size: 8},
			{Name: "offset", Type: types.I64, Offset: 24, Size: 8},
		},
		Size: 32,
	}
}

// seedBuiltinFunctions pre-declares runtime function signatures so calls to
// them type-check without a matching declaration in the source file.
func seedBuiltinFunctions(fns map[string]*types.Signature) {
	sig := func(ret string, params ...string) *types.Signature {
		defaults := make([]bool, len(params))
		return &types.Signature{Params: params, Defaults: defaults, Return: ret}
	}
	fns["PressAKey"] = sig(types.I64)
	fns["ClassRep"] = sig(types.U0, types.Ref(types.U0), types.Ref(types.U8), types.I64)
	fns["HashFind"] = sig(types.Ref("CHashClass"), types.Ref(types.U8), types.Ref(types.U0), types.I64)
	fns["JobQue"] = sig(types.I64, types.Ref(types.U0), types.I64, types.I64)
	fns["Spawn"] = sig(types.I64, types.Ref(types.U0), types.Ref(types.U8), types.Bool)
	fns["CallStkGrow"] = sig(types.I64, types.I64)
	fns["MAlloc"] = sig(types.Ref(types.U0), types.I64)
	fns["Free"] = sig(types.U0, types.Ref(types.U0))
	fns["StrPrint"] = &types.Signature{Params: []string{types.Ref(types.U8)}, Defaults: []bool{false}, Return: types.I64, Variadic: true}
	fns["Print"] = &types.Signature{Params: []string{types.Ref(types.U8)}, Defaults: []bool{false}, Return: types.I64, Variadic: true}
}
