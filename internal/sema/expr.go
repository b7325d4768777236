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

import (
	"strings"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/lexer"
	"github.com/holyc-tools/holycc/internal/types"
)

// typeOfExpr computes n's type, records it on n.Type, and
// returns it. Children are always typed first (post-order), so parent
// rules can inspect an already-resolved child type.
func (a *analyzer) typeOfExpr(scope *types.Scope, n *ast.Node) (string, error) {
	var t string
	var err error
	switch n.Kind {
	case ast.Literal:
		t = a.typeOfLiteral(n)
	case ast.Identifier:
		t, err = a.typeOfIdentifier(scope, n)
	case ast.DollarExpr:
		t, err = a.typeOfExpr(scope, n.Child(0))
	case ast.UnaryExpr:
		t, err = a.typeOfUnary(scope, n)
	case ast.PostfixExpr:
		t, err = a.typeOfExpr(scope, n.Child(0))
	case ast.BinaryExpr:
		t, err = a.typeOfBinary(scope, n)
	case ast.AssignExpr:
		t, err = a.typeOfAssign(scope, n)
	case ast.CastExpr:
		_, err = a.typeOfExpr(scope, n.Child(0))
		t = n.Text
	case ast.LaneExpr:
		t, err = a.typeOfLane(scope, n)
	case ast.MemberExpr:
		t, err = a.typeOfMember(scope, n)
	case ast.IndexExpr:
		t, err = a.typeOfIndex(scope, n)
	case ast.CallExpr:
		t, err = a.typeOfCall(scope, n)
	case ast.CommaExpr:
		for _, c := range n.Children {
			if _, cerr := a.typeOfExpr(scope, c); cerr != nil {
				return "", cerr
			}
		}
		t = n.Children[len(n.Children)-1].Type
	case ast.EmptyArg:
		t = types.Unknown
	default:
		t = types.Unknown
	}
	if err != nil {
		return "", err
	}
	n.Type = t
	return t, nil
}

func (a *analyzer) typeOfLiteral(n *ast.Node) string {
	if strings.HasPrefix(n.Text, "\"") {
		return types.Ref(types.U8)
	}
	for _, c := range n.Children {
		if c.Kind == ast.DeclSpec && c.Text == "char" {
			return types.I64
		}
	}
	if strings.Contains(n.Text, ".") {
		return types.F64
	}
	return types.I64
}

func (a *analyzer) typeOfIdentifier(scope *types.Scope, n *ast.Node) (string, error) {
	if sym, ok := scope.Lookup(n.Text); ok {
		return sym.Type, nil
	}
	if sig, ok := a.res.Functions[n.Text]; ok {
		return types.FnType(sig.Return), nil
	}
	return "", a.errf(n, "HC3021", "undefined identifier %q", n.Text)
}

func (a *analyzer) typeOfUnary(scope *types.Scope, n *ast.Node) (string, error) {
	operand, err := a.typeOfExpr(scope, n.Child(0))
	if err != nil {
		return "", err
	}
	switch n.Text {
	case "&":
		return types.Ref(operand), nil
	case "*":
		if !types.IsPointer(operand) && operand != types.Unknown {
			return "", a.errf(n, "HC3012", "cannot dereference non-pointer type %q", operand)
		}
		if types.IsPointer(operand) {
			return types.Deref(operand), nil
		}
		return types.Unknown, nil
	case "!":
		return types.Bool, nil
	case "~":
		if !types.IsIntegralLike(operand) && operand != types.Unknown {
			return "", a.errf(n, "HC3012", "'~' requires an integral operand, got %q", operand)
		}
		return operand, nil
	case "+", "-", "++", "--":
		if !types.IsNumeric(operand) && !types.IsPointer(operand) && operand != types.Unknown {
			return "", a.errf(n, "HC3012", "operator %q requires a numeric operand, got %q", n.Text, operand)
		}
		return operand, nil
	}
	return types.Unknown, nil
}

func isRelOrEq(op string) bool {
	switch op {
	case "<", ">", "<=", ">=", "==", "!=":
		return true
	}
	return false
}

func isShiftOrBitwise(op string) bool {
	switch op {
	case "<<", ">>", "&", "|", "^":
		return true
	}
	return false
}

func (a *analyzer) typeOfBinary(scope *types.Scope, n *ast.Node) (string, error) {
	l, err := a.typeOfExpr(scope, n.Child(0))
	if err != nil {
		return "", err
	}
	r, err := a.typeOfExpr(scope, n.Child(1))
	if err != nil {
		return "", err
	}

	switch {
	case n.Text == "&&" || n.Text == "||":
		if !isScalar(l) || !isScalar(r) {
			return "", a.errf(n, "HC3013", "operator %q requires scalar operands", n.Text)
		}
		return types.Bool, nil
	case isRelOrEq(n.Text):
		left := n.Child(0)
		if left.Kind == ast.BinaryExpr && isRelOrEq(left.Text) {
			return "Bool(chained)", nil
		}
		return types.Bool, nil
	case n.Text == "+" || n.Text == "-":
		if types.IsPointer(l) && types.IsIntegralLike(r) {
			return l, nil
		}
		if n.Text == "+" && types.IsIntegralLike(l) && types.IsPointer(r) {
			return r, nil
		}
		if n.Text == "-" && types.IsPointer(l) && types.IsPointer(r) {
			return types.I64, nil
		}
		if !types.IsNumeric(l) && l != types.Unknown {
			return "", a.errf(n, "HC3013", "operator %q requires numeric or pointer operands, got %q", n.Text, l)
		}
		if !types.IsNumeric(r) && r != types.Unknown {
			return "", a.errf(n, "HC3013", "operator %q requires numeric or pointer operands, got %q", n.Text, r)
		}
		return types.Promote(l, r), nil
	case n.Text == "*" || n.Text == "/" || n.Text == "%":
		if !types.IsNumeric(l) && l != types.Unknown {
			return "", a.errf(n, "HC3013", "operator %q requires numeric operands, got %q", n.Text, l)
		}
		if !types.IsNumeric(r) && r != types.Unknown {
			return "", a.errf(n, "HC3013", "operator %q requires numeric operands, got %q", n.Text, r)
		}
		return types.Promote(l, r), nil
	case isShiftOrBitwise(n.Text):
		if !types.IsIntegralLike(l) && l != types.Unknown {
			return "", a.errf(n, "HC3013", "operator %q requires integral operands, got %q", n.Text, l)
		}
		if !types.IsIntegralLike(r) && r != types.Unknown {
			return "", a.errf(n, "HC3013", "operator %q requires integral operands, got %q", n.Text, r)
		}
		if n.Text == ">>" && types.IsUnsigned(l) && !isSmallConstShift(n.Child(1)) {
			a.res.Warnings.Warnf(a.opts.File, n.Line, n.Column, "HC3091",
				"unsigned right shift of %q lowers to an arithmetic shift; result may differ from a logical shift", l)
		}
		return types.Promote(l, r), nil
	}
	return types.Unknown, nil
}

func isSmallConstShift(n *ast.Node) bool {
	v, ok := constFoldInt(n)
	return ok && v >= 0 && v < 64
}

func isScalar(t string) bool {
	return types.IsNumeric(t) || types.IsPointer(t) || t == types.Unknown
}

func (a *analyzer) typeOfAssign(scope *types.Scope, n *ast.Node) (string, error) {
	lhs, err := a.typeOfExpr(scope, n.Child(0))
	if err != nil {
		return "", err
	}
	rhs, err := a.typeOfExpr(scope, n.Child(1))
	if err != nil {
		return "", err
	}
	if !types.ConvertibleTo(rhs, lhs) {
		return "", a.errf(n, "HC3011", "cannot assign %q to %q", rhs, lhs)
	}
	return lhs, nil
}

// typeOfLane validates base.<sel>[idx]: base must be
// integral-like, idx integral, sel width must divide the base width, and a
// literal idx must fit within base_bits/lane_bits.
func (a *analyzer) typeOfLane(scope *types.Scope, n *ast.Node) (string, error) {
	base, err := a.typeOfExpr(scope, n.Child(0))
	if err != nil {
		return "", err
	}
	idx, err := a.typeOfExpr(scope, n.Child(1))
	if err != nil {
		return "", err
	}
	if !types.IsIntegralLike(base) && base != types.Unknown {
		return "", a.errf(n, "HC3031", "lane access requires an integral base, got %q", base)
	}
	if !types.IsIntegralLike(idx) && idx != types.Unknown {
		return "", a.errf(n, "HC3031", "lane index must be integral, got %q", idx)
	}
	laneBits, ok := lexer.LaneSelectors[n.Text]
	if !ok {
		return "", a.errf(n, "HC3031", "unknown lane selector %q", n.Text)
	}
	baseBits := types.Width(base)
	if baseBits != 0 && baseBits%laneBits != 0 {
		return "", a.errf(n, "HC3032", "lane width %d does not divide base width %d", laneBits, baseBits)
	}
	if baseBits != 0 {
		if lit, ok := constFoldInt(n.Child(1)); ok {
			lanes := int64(baseBits / laneBits)
			if lit < 0 || lit >= lanes {
				return "", a.errf(n, "HC3033", "lane index %d out of range [0,%d)", lit, lanes)
			}
		}
	}
	if strings.HasPrefix(n.Text, "u") {
		return laneUnsignedType(laneBits), nil
	}
	return laneSignedType(laneBits), nil
}

func laneSignedType(bits int) string {
	switch bits {
	case 8:
		return types.I8
	case 16:
		return types.I16
	case 32:
		return types.I32
	default:
		return types.I64
	}
}

func laneUnsignedType(bits int) string {
	switch bits {
	case 8:
		return types.U8
	case 16:
		return types.U16
	case 32:
		return types.U32
	default:
		return types.U64
	}
}

// typeOfMember resolves base.field / base->field: if base normalizes to a
// known aggregate, the result is the field's recorded type; otherwise I64
// (member access on an unresolved shape degrades to I64
// rather than Unknown, since HolyC programs commonly access fields through
// raw pointers without a declared class).
func (a *analyzer) typeOfMember(scope *types.Scope, n *ast.Node) (string, error) {
	base, err := a.typeOfExpr(scope, n.Child(0))
	if err != nil {
		return "", err
	}
	aggName := strings.TrimRight(base, "*")
	if agg, ok := a.res.Aggregates[aggName]; ok {
		if f, ok := agg.FieldByName(n.Text); ok {
			return f.Type, nil
		}
	}
	return types.I64, nil
}

func (a *analyzer) typeOfIndex(scope *types.Scope, n *ast.Node) (string, error) {
	base, err := a.typeOfExpr(scope, n.Child(0))
	if err != nil {
		return "", err
	}
	if _, err := a.typeOfExpr(scope, n.Child(1)); err != nil {
		return "", err
	}
	if types.IsPointer(base) {
		return types.Deref(base), nil
	}
	return types.Unknown, nil
}

// typeOfCall type-checks a direct call against its known signature
// (arity, default-argument fills, argument convertibility), or treats the
// callee as an indirect call inferring the return type from its expression
// type.
func (a *analyzer) typeOfCall(scope *types.Scope, n *ast.Node) (string, error) {
	callee := n.Child(0)
	args := n.Child(1)

	if callee.Kind == ast.Identifier {
		if _, isLocal := scope.Lookup(callee.Text); !isLocal {
			if sig, ok := a.res.Functions[callee.Text]; ok {
				return a.typeCheckDirectCall(scope, n, callee, args, sig)
			}
		}
	}

	calleeType, err := a.typeOfExpr(scope, callee)
	if err != nil {
		return "", err
	}
	for _, arg := range args.Children {
		if arg.Kind == ast.EmptyArg {
			continue
		}
		if _, err := a.typeOfExpr(scope, arg); err != nil {
			return "", err
		}
	}
	if types.IsFunctionType(calleeType) {
		return types.FunctionReturn(calleeType), nil
	}
	if types.IsPointer(calleeType) {
		return types.I64, nil
	}
	return types.I64, nil
}

func (a *analyzer) typeCheckDirectCall(scope *types.Scope, n, callee, args *ast.Node, sig *types.Signature) (string, error) {
	callee.Type = types.FnType(sig.Return)
	fixedCount := len(sig.Params)
	if !sig.Variadic && len(args.Children) > fixedCount {
		return "", a.errf(n, "HC3041", "too many arguments to %q: want %d, got %d", callee.Text, fixedCount, len(args.Children))
	}
	for i, arg := range args.Children {
		if i >= fixedCount {
			// Variadic tail: type it but don't constrain against a param type.
			if arg.Kind != ast.EmptyArg {
				if _, err := a.typeOfExpr(scope, arg); err != nil {
					return "", err
				}
			}
			continue
		}
		want := sig.Params[i]
		if arg.Kind == ast.EmptyArg {
			if !sig.Defaults[i] {
				return "", a.errf(n, "HC3041", "argument %d of %q has no default to fill", i+1, callee.Text)
			}
			arg.Type = want
			continue
		}
		got, err := a.typeOfExpr(scope, arg)
		if err != nil {
			return "", err
		}
		if !types.ConvertibleTo(got, want) {
			return "", a.errf(arg, "HC3042", "argument %d of %q: cannot convert %q to %q", i+1, callee.Text, got, want)
		}
	}
	for i := len(args.Children); i < fixedCount; i++ {
		if !sig.Defaults[i] {
			return "", a.errf(n, "HC3041", "too few arguments to %q: missing required argument %d", callee.Text, i+1)
		}
	}
	return sig.Return, nil
}
