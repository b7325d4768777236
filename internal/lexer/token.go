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

package lexer

// Kind classifies a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	Number
	String
	Char
	Punct
)

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind   Kind
	Text   string // raw spelling; for String/Char this is the decoded value
	Line   int
	Column int
}

// keywords is the fixed HolyC keyword set.
var keywords = map[string]bool{
	"U0": true, "I8": true, "I16": true, "I32": true, "I64": true,
	"U8": true, "U16": true, "U32": true, "U64": true, "F64": true,
	"Bool": true, "if": true, "else": true, "while": true, "do": true,
	"for": true, "switch": true, "case": true, "default": true,
	"break": true, "return": true, "goto": true, "start": true, "end": true,
	"class": true, "union": true, "public": true, "extern": true,
	"import": true, "try": true, "catch": true, "throw": true, "lock": true,
	"asm": true, "reg": true, "noreg": true, "interrupt": true,
	"no_warn": true, "_extern": true, "_import": true, "_export": true,
	"TRUE": true, "FALSE": true, "NULL": true,
}

// IsKeyword reports whether s is a fixed HolyC keyword.
func IsKeyword(s string) bool { return keywords[s] }

// Punctuators, longest first, matched greedily.
var punctuators = []string{
	"...", "<<=", ">>=",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "++", "--",
	"->", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "::",
	"(", ")", "{", "}", "[", "]", ";", ",", ".", "?", ":",
	"+", "-", "*", "/", "%", "=", "<", ">", "!", "~", "&", "|", "^", "$",
}

// LaneSelectors is the fixed set of sub-integer lane tags (case-insensitive).
var LaneSelectors = map[string]int{
	"i8": 8, "u8": 8, "i16": 16, "u16": 16,
	"i32": 32, "u32": 32, "i64": 64, "u64": 64,
}
