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

package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump renders n as an indented tree, one node per line: two spaces per
// depth, "NodeKind: <text> [type=<t>]".
func Dump(w io.Writer, n *Node) {
	dump(w, n, 0)
}

func dump(w io.Writer, n *Node, depth int) {
	if n == nil {
		return
	}
	fmt.Fprintf(w, "%s%s: %s%s\n", strings.Repeat("  ", depth), n.Kind, n.Text, typeSuffix(n))
	for _, c := range n.Children {
		dump(w, c, depth+1)
	}
}

func typeSuffix(n *Node) string {
	if n.Type == "" {
		return ""
	}
	return fmt.Sprintf(" [type=%s]", n.Type)
}
