// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
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

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xoreos-tools/nwscript-analyzer/analysis/functional"
	"github.com/xoreos-tools/nwscript-analyzer/analysis/stackanalysis"
)

// callGraphDOT renders the subroutine call graph reachable from entry as
// a Graphviz DOT digraph, the way the original xoreos-tools command line
// renders its own analyzer output (the decompiler pipeline itself is out
// of scope here; this is only ever the analyzer's own call graph).
func callGraphDOT(entry uint32, edges map[uint32][]uint32) string {
	var sb strings.Builder
	sb.WriteString("digraph callgraph {\n")
	sb.WriteString("\trankdir=LR;\n")
	sb.WriteString(fmt.Sprintf("\t\"@%08X\" [shape=box,peripheries=2];\n", entry))

	for _, addr := range functional.SetToOrderedSlice(toSet(keys(edges))) {
		for _, callee := range sortedUint32(edges[addr]) {
			sb.WriteString(fmt.Sprintf("\t\"@%08X\" -> \"@%08X\";\n", addr, callee))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func keys(m map[uint32][]uint32) []uint32 {
	ks := make([]uint32, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func toSet(addrs []uint32) map[uint32]bool {
	s := make(map[uint32]bool, len(addrs))
	for _, a := range addrs {
		s[a] = true
	}
	return s
}

func sortedUint32(addrs []uint32) []uint32 {
	out := append([]uint32(nil), addrs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// callGraphDOTForEntry is a small convenience wrapper pairing
// stackanalysis.CallGraphEdges with callGraphDOT, kept separate so tests
// can call callGraphDOT directly against a hand-built edge map.
func callGraphDOTForEntry(program *loadedProgram) string {
	edges := stackanalysis.CallGraphEdges(program.entry)
	return callGraphDOT(program.entry.Address, edges)
}
