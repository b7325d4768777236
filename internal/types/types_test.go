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

package types

import "testing"

func TestPointerHelpers(t *testing.T) {
	if !IsPointer("I64*") || IsPointer("I64") {
		t.Error("IsPointer misclassified")
	}
	if Deref("I64*") != "I64" {
		t.Errorf("Deref(I64*) = %q, want I64", Deref("I64*"))
	}
	if Ref("I64") != "I64*" {
		t.Errorf("Ref(I64) = %q, want I64*", Ref("I64"))
	}
}

func TestIsIntegralLikeAndUnsigned(t *testing.T) {
	for _, tc := range []struct {
		t          string
		integral   bool
		unsigned   bool
	}{
		{I64, true, false},
		{U64, true, true},
		{Bool, true, false},
		{F64, false, false},
		{"I64*", false, false},
	} {
		if got := IsIntegralLike(tc.t); got != tc.integral {
			t.Errorf("IsIntegralLike(%q) = %v, want %v", tc.t, got, tc.integral)
		}
		if got := IsUnsigned(tc.t); got != tc.unsigned {
			t.Errorf("IsUnsigned(%q) = %v, want %v", tc.t, got, tc.unsigned)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	for _, tc := range []struct {
		t    string
		want bool
	}{
		{I64, true}, {F64, true}, {Bool, true}, {"I64*", false}, {Unknown, false},
	} {
		if got := IsNumeric(tc.t); got != tc.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestWidth(t *testing.T) {
	for _, tc := range []struct {
		t    string
		want int
	}{
		{I8, 8}, {I16, 16}, {I32, 32}, {I64, 64}, {"I64*", 0}, {Bool, 0},
	} {
		if got := Width(tc.t); got != tc.want {
			t.Errorf("Width(%q) = %d, want %d", tc.t, got, tc.want)
		}
	}
}

func TestFunctionTypeHelpers(t *testing.T) {
	ft := FnType(I64)
	if ft != "fn I64" {
		t.Errorf("FnType(I64) = %q, want %q", ft, "fn I64")
	}
	if !IsFunctionType(ft) {
		t.Error("IsFunctionType(fn I64) = false, want true")
	}
	if IsFunctionType(I64) {
		t.Error("IsFunctionType(I64) = true, want false")
	}
	if FunctionReturn(ft) != I64 {
		t.Errorf("FunctionReturn(%q) = %q, want I64", ft, FunctionReturn(ft))
	}
}

func TestConvertibleTo(t *testing.T) {
	for _, tc := range []struct {
		from, to string
		want     bool
	}{
		{I64, I64, true},
		{I64, F64, true},
		{I64, "I64*", true},
		{"I64*", "U8*", true},
		{Unknown, "U8*", true},
		{I64, Unknown, true},
		{"I64*", Bool, false},
		{Bool, "I64*", false},
	} {
		if got := ConvertibleTo(tc.from, tc.to); got != tc.want {
			t.Errorf("ConvertibleTo(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPromote(t *testing.T) {
	for _, tc := range []struct {
		a, b, want string
	}{
		{I64, F64, F64},
		{I64, U64, U64},
		{I32, I32, I64},
		{U32, I32, U64},
	} {
		if got := Promote(tc.a, tc.b); got != tc.want {
			t.Errorf("Promote(%q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestAggregateFieldByName(t *testing.T) {
	agg := &Aggregate{
		Name: "Point",
		Fields: []Field{
			{Name: "x", Type: I64, Offset: 0, Size: 8},
			{Name: "y", Type: I64, Offset: 8, Size: 8},
		},
		Size: 16,
	}
	f, ok := agg.FieldByName("y")
	if !ok || f.Offset != 8 {
		t.Errorf("FieldByName(y) = %+v, %v, want offset 8 true", f, ok)
	}
	if _, ok := agg.FieldByName("z"); ok {
		t.Error("FieldByName(z) = true, want false")
	}
}

func TestSizeOf(t *testing.T) {
	aggs := map[string]*Aggregate{"Point": {Name: "Point", Size: 16}}
	for _, tc := range []struct {
		t    string
		want int
	}{
		{I8, 1}, {I16, 2}, {I32, 4}, {I64, 8}, {Bool, 4}, {U0, 0},
		{"I64*", 8}, {"Point", 16}, {"Unresolved", 8},
	} {
		if got := SizeOf(tc.t, aggs); got != tc.want {
			t.Errorf("SizeOf(%q) = %d, want %d", tc.t, got, tc.want)
		}
	}
}
