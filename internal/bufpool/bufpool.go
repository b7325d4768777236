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

// Package bufpool provides a pool of reusable byte buffers; the
// preprocessor takes one per Process call for its output writer.
package bufpool

import "sync"

var free = sync.Pool{
	New: func() interface{} { return new(Buffer) },
}

// Buffer is a growable []byte with a small inline bootstrap array, avoiding
// a heap allocation for the common short-expansion case.
type Buffer struct {
	buf       []byte
	bootstrap [64]byte
}

// Get returns a reset Buffer from the pool.
func Get() *Buffer {
	b := free.Get().(*Buffer)
	b.Reset()
	return b
}

// Put returns b to the pool. Buffers that grew beyond 4K are dropped instead
// of pooled, so one pathologically large expansion doesn't pin memory.
func Put(b *Buffer) {
	if cap(b.buf) > 4096 {
		return
	}
	free.Put(b)
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

func (b *Buffer) WriteRune(r rune) (int, error) {
	n := len(b.buf)
	b.buf = append(b.buf, string(r)...)
	return len(b.buf) - n, nil
}

func (b *Buffer) Bytes() []byte  { return b.buf }
func (b *Buffer) Len() int       { return len(b.buf) }
func (b *Buffer) String() string { return string(b.buf) }

// Reset clears the buffer for reuse, reusing the inline bootstrap array when
// nothing has been appended yet.
func (b *Buffer) Reset() {
	if b.buf == nil {
		b.buf = b.bootstrap[:0]
	}
	b.buf = b.buf[:0]
}
