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

package strutil

import (
	"reflect"
	"testing"
)

func TestSplitSpaces(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []string
	}{
		{in: "foo", want: []string{"foo"}},
		{in: "  \t ", want: nil},
		{in: "  foo \t  bar \t", want: []string{"foo", "bar"}},
		{in: "  foo bar", want: []string{"foo", "bar"}},
		{in: "foo bar  ", want: []string{"foo", "bar"}},
	} {
		got := SplitSpaces(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitSpaces(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitTopLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		sep  byte
		want []string
	}{
		{in: "a,b,c", sep: ',', want: []string{"a", "b", "c"}},
		{in: "f(a,b),c", sep: ',', want: []string{"f(a,b)", "c"}},
		{in: `"a,b",c`, sep: ',', want: []string{`"a,b"`, "c"}},
		{in: `"a\",b",c`, sep: ',', want: []string{`"a\",b"`, "c"}},
		{in: "a", sep: ',', want: []string{"a"}},
		{in: "", sep: ',', want: []string{""}},
		{in: "=r(a), ~{memory}", sep: ',', want: []string{"=r(a)", "~{memory}"}},
	} {
		got := SplitTopLevel(tc.in, tc.sep)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitTopLevel(%q, %q)=%q, want %q", tc.in, tc.sep, got, tc.want)
		}
	}
}

func TestUnquote(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{`"foo"`, "foo"},
		{"foo", "foo"},
		{`""`, ""},
		{`"`, `"`},
	} {
		if got := Unquote(tc.in); got != tc.want {
			t.Errorf("Unquote(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuote(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"foo", `"foo"`},
		{`a"b`, `"a\"b"`},
		{`a\b`, `"a\\b"`},
	} {
		if got := Quote(tc.in); got != tc.want {
			t.Errorf("Quote(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuoteUnquoteRoundTrip(t *testing.T) {
	for _, s := range []string{"foo", `a"b`, `a\b`, ""} {
		if got := Unquote(Quote(s)); got != s {
			t.Errorf("Unquote(Quote(%q))=%q, want %q", s, got, s)
		}
	}
}
