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

// Package lexer tokenizes HolyC source text using a byte-at-a-time
// scanner with peek/advance helpers over the full HolyC token grammar.
package lexer

import (
	"strings"

	"github.com/holyc-tools/holycc/internal/diag"
)

// Lexer turns source bytes into a Token stream.
type Lexer struct {
	file string
	src  []byte
	pos  int
	line int
	col  int
}

// New creates a Lexer over src, attributing diagnostics to file.
func New(file string, src []byte) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isHex(c byte) bool    { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isAlpha(c byte) bool  { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool  { return isAlpha(c) || isDigit(c) }
func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f' }

// Next returns the next token, or an EOF-kind token at end of input.
func (l *Lexer) Next() (Token, error) {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			return Token{Kind: EOF, Line: l.line, Column: l.col}, nil
		}
		c := l.peekByte()
		if c == '/' && l.peekAt(1) == '/' {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		if c == '/' && l.peekAt(1) == '*' {
			if err := l.skipBlockComment(); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	startLine, startCol := l.line, l.col
	c := l.peekByte()

	switch {
	case isAlpha(c):
		return l.scanIdent(startLine, startCol), nil
	case isDigit(c), c == '.' && isDigit(l.peekAt(1)) && !(l.pos > 0 && isDigit(l.src[l.pos-1])):
		return l.scanNumber(startLine, startCol), nil
	case c == '"':
		return l.scanString(startLine, startCol)
	case c == '\'':
		return l.scanChar(startLine, startCol)
	default:
		return l.scanPunct(startLine, startCol)
	}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.peekByte()) {
		l.advance()
	}
}

func (l *Lexer) skipBlockComment() error {
	line, col := l.line, l.col
	l.advance()
	l.advance()
	for {
		if l.pos >= len(l.src) {
			return diag.New("HC2003", l.file, line, col, "unterminated block comment")
		}
		if l.peekByte() == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
}

func (l *Lexer) scanIdent(line, col int) Token {
	start := l.pos
	for l.pos < len(l.src) && isAlnum(l.peekByte()) {
		l.advance()
	}
	text := string(l.src[start:l.pos])
	kind := Ident
	if IsKeyword(text) {
		kind = Keyword
	}
	return Token{Kind: kind, Text: text, Line: line, Column: col}
}

// scanNumber accepts a 0x prefix, underscores inside the digit run, and at
// most one '.' as a floating-point marker; a second '.' is left for the
// caller to re-tokenize as operator/range-case syntax.
func (l *Lexer) scanNumber(line, col int) Token {
	start := l.pos
	if l.peekByte() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && (isHex(l.peekByte()) || l.peekByte() == '_') {
			l.advance()
		}
		return Token{Kind: Number, Text: string(l.src[start:l.pos]), Line: line, Column: col}
	}
	sawDot := false
	for l.pos < len(l.src) {
		c := l.peekByte()
		if isDigit(c) || c == '_' || isAlpha(c) {
			l.advance()
			continue
		}
		if c == '.' && !sawDot && isDigit(l.peekAt(1)) {
			sawDot = true
			l.advance()
			continue
		}
		break
	}
	return Token{Kind: Number, Text: string(l.src[start:l.pos]), Line: line, Column: col}
}

func (l *Lexer) scanString(line, col int) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, diag.New("HC2001", l.file, line, col, "unterminated string literal")
		}
		c := l.peekByte()
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return Token{}, diag.New("HC2001", l.file, line, col, "unterminated string literal")
			}
			b.WriteByte(decodeEscape(l.advance()))
			continue
		}
		b.WriteByte(l.advance())
	}
	return Token{Kind: String, Text: b.String(), Line: line, Column: col}, nil
}

func (l *Lexer) scanChar(line, col int) (Token, error) {
	l.advance() // opening quote
	if l.pos >= len(l.src) {
		return Token{}, diag.New("HC2002", l.file, line, col, "unterminated char literal")
	}
	var v byte
	c := l.peekByte()
	if c == '\\' {
		l.advance()
		if l.pos >= len(l.src) {
			return Token{}, diag.New("HC2002", l.file, line, col, "unterminated char literal")
		}
		v = decodeEscape(l.advance())
	} else {
		v = l.advance()
	}
	if l.pos >= len(l.src) || l.peekByte() != '\'' {
		return Token{}, diag.New("HC2002", l.file, line, col, "unterminated char literal")
	}
	l.advance()
	return Token{Kind: Char, Text: itoa(int64(v)), Line: line, Column: col}, nil
}

// decodeEscape handles \n \t \r \\ \' and a raw pass-through for any other
// escaped character
func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '\\':
		return '\\'
	case '\'':
		return '\''
	case '"':
		return '"'
	case '0':
		return 0
	default:
		return c
	}
}

func (l *Lexer) scanPunct(line, col int) (Token, error) {
	rest := l.src[l.pos:]
	for _, p := range punctuators {
		if len(rest) >= len(p) && string(rest[:len(p)]) == p {
			for range p {
				l.advance()
			}
			return Token{Kind: Punct, Text: p, Line: line, Column: col}, nil
		}
	}
	return Token{}, diag.New("HC2099", l.file, line, col, "unexpected character %q", string(l.peekByte()))
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
