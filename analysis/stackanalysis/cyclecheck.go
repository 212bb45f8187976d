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

package stackanalysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/xoreos-tools/nwscript-analyzer/analysis/functional"
	"github.com/xoreos-tools/nwscript-analyzer/internal/graphutil"
	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

// RecursionDiagnostic reports the full call-graph shape behind a
// Recursion error: walkSubRoutine only ever reports the single back-edge
// it tripped over, but a caller investigating the error usually wants
// every subroutine participating in the cycle.
type RecursionDiagnostic struct {
	// Cycles lists every elementary cycle found in the subroutine call
	// graph, as ordered lists of subroutine entry addresses.
	Cycles [][]uint32

	// Acyclic is true if the call graph rooted at entry has no cycles at
	// all (DiagnoseRecursion is still safe to call on an acyclic
	// program; it simply reports Acyclic == true and an empty Cycles).
	Acyclic bool
}

// DiagnoseRecursion builds the static call graph reachable from entry
// (nodes are subroutines, edges are JSR sites) and enumerates its
// elementary cycles via graphutil's Johnson's-algorithm adapter, plus a
// topological-sort-based acyclicity check. It never mutates entry's
// StackAnalyzeState or any Block's state, so it is safe to run either
// before analysis (as a pre-flight check) or after a Recursion error (as
// a post-mortem).
func DiagnoseRecursion(entry *nwscript.SubRoutine) *RecursionDiagnostic {
	adjacency, labels := buildCallGraph(entry)
	g := graphutil.NewGraph(adjacency, labels)

	diag := &RecursionDiagnostic{}

	if _, err := topo.Sort(g); err == nil {
		diag.Acyclic = true
		return diag
	}

	for _, cycle := range graphutil.FindAllElementaryCycles(g) {
		addrs := make([]uint32, len(cycle))
		for i, id := range cycle {
			addrs[i] = uint32(id)
		}
		diag.Cycles = append(diag.Cycles, addrs)
	}
	return diag
}

// CallGraphEdges walks every subroutine reachable from entry via
// FunctionCall edges and returns, for each subroutine address, the
// deduplicated set of its direct callee addresses (a subroutine called
// from two different sites appears once). It is the exported counterpart
// of buildCallGraph, for callers that want the raw edge list rather than
// a cycle diagnosis — e.g. a DOT renderer.
func CallGraphEdges(entry *nwscript.SubRoutine) map[uint32][]uint32 {
	adjacency, _ := buildCallGraph(entry)

	edges := make(map[uint32][]uint32, len(adjacency))
	for id, callees := range adjacency {
		addr := uint32(id)
		for calleeID := range callees {
			edges[addr] = append(edges[addr], uint32(calleeID))
		}
	}
	return edges
}

// buildCallGraph walks every subroutine reachable from entry via
// FunctionCall edges and returns its adjacency map (keyed by subroutine
// address, since addresses are already unique dense identifiers) plus a
// human-readable label per node.
func buildCallGraph(entry *nwscript.SubRoutine) (map[int64]map[int64]bool, map[int64]string) {
	adjacency := map[int64]map[int64]bool{}
	labels := map[int64]string{}

	visited := map[uint32]bool{}
	queue := []*nwscript.SubRoutine{entry}

	for len(queue) > 0 {
		sub := queue[0]
		queue = queue[1:]

		if visited[sub.Address] {
			continue
		}
		visited[sub.Address] = true

		id := int64(sub.Address)
		if _, ok := adjacency[id]; !ok {
			adjacency[id] = map[int64]bool{}
			labels[id] = fmt.Sprintf("@%08X", sub.Address)
		}

		for _, block := range sub.Blocks {
			for i, child := range block.Children {
				if i >= len(block.ChildrenTypes) || block.ChildrenTypes[i] != nwscript.BlockEdgeTypeFunctionCall {
					continue
				}
				if child.SubRoutine == nil {
					continue
				}

				calleeID := int64(child.SubRoutine.Address)
				adjacency[id][calleeID] = true

				if !visited[child.SubRoutine.Address] {
					queue = append(queue, child.SubRoutine)
				}
			}
		}
	}

	return adjacency, labels
}

// FormatCycle renders a cycle of subroutine addresses as a human-readable
// call chain, e.g. "@00001000 -> @00001040 -> @00001000".
func FormatCycle(cycle []uint32) string {
	parts := functional.Map(cycle, func(addr uint32) string { return fmt.Sprintf("@%08X", addr) })
	return strings.Join(parts, " -> ")
}
