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

// Package graphutil adapts a plain directed-edge map to the graph
// interfaces of two different third-party graph libraries at once:
// gonum's graph.Graph (for topological sort / DAG checks) and
// yourbasic/graph's graph.Iterator (for strongly-connected-component
// based elementary cycle enumeration).
package graphutil

import (
	"sort"

	"gonum.org/v1/gonum/graph"
)

// CGraph is a directed graph over int64-identified nodes, built from a
// caller-supplied adjacency map. It implements both graph.Iterator
// (github.com/yourbasic/graph) and gonum's graph.Graph so the same
// adjacency data can feed either library without duplicating it.
type CGraph struct {
	order int

	// Labels names each node for diagnostics; optional.
	Labels map[int64]string

	// IDMap maps from node IDs to CNodes.
	IDMap map[int64]CNode

	// Keys are all the node IDs.
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed
	// edge between IDMap[x] and IDMap[y].
	Edges map[int64]map[int64]bool
}

// NewGraph builds a CGraph from an adjacency map (node id -> set of
// successor ids) and an optional label map used only for String().
func NewGraph(adjacency map[int64]map[int64]bool, labels map[int64]string) CGraph {
	n := len(adjacency)
	idmap := make(map[int64]CNode, n)
	keys := make([]int64, 0, n)

	for id := range adjacency {
		keys = append(keys, id)
		idmap[id] = CNode{id: id, label: labels[id]}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return CGraph{
		order:  n,
		Labels: labels,
		IDMap:  idmap,
		Edges:  adjacency,
		Keys:   keys,
	}
}

// Subgraph returns a new graph that is the original graph with only the
// nodes in include. Only the edges that have both the origin and
// destination nodes in the include nodes are kept in the resulting graph.
func Subgraph(original CGraph, include []int64) CGraph {
	idmap := make(map[int64]CNode, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		idmap[i] = original.IDMap[i]
	}

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
			}
		}
	}

	return CGraph{
		order:  original.Order(),
		Labels: original.Labels,
		IDMap:  idmap,
		Edges:  edges,
		Keys:   keys,
	}
}

// Order implements the order of the graph.Iterator interface for CGraph.
func (c CGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for CGraph.
func (c CGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.IDMap[int64(v)]; !ok {
		return false
	}
	for w := range c.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the gonum graph.Graph interface.
func (c CGraph) Node(v int64) graph.Node {
	return c.IDMap[v]
}

// Nodes returns the set of nodes in the graph.
func (c CGraph) Nodes() graph.Nodes {
	keys := make([]int64, len(c.IDMap))

	i := 0
	for k := range c.IDMap {
		keys[i] = k
		i++
	}
	return &NodeSet{
		nodes: c.IDMap,
		ids:   keys,
		cur:   -1,
	}
}

// From returns the set of nodes reachable from the id.
func (c CGraph) From(id int64) graph.Nodes {
	var keys []int64

	for out := range c.Edges[id] {
		keys = append(keys, out)
	}
	return &NodeSet{
		nodes: c.IDMap,
		ids:   keys,
		cur:   -1,
	}
}

// HasEdgeBetween returns whether an edge exists between the two node
// identifiers, in either direction.
func (c CGraph) HasEdgeBetween(xid, yid int64) bool {
	xe := c.Edges[xid]
	ye := c.Edges[yid]
	return xe[yid] || ye[xid]
}

// HasEdgeFromTo returns whether a directed edge exists from uid to vid,
// completing the gonum graph.Directed interface.
func (c CGraph) HasEdgeFromTo(uid, vid int64) bool {
	return c.Edges[uid][vid]
}

// To returns the set of nodes with an edge to id.
func (c CGraph) To(id int64) graph.Nodes {
	var keys []int64

	for from, out := range c.Edges {
		if out[id] {
			keys = append(keys, from)
		}
	}
	return &NodeSet{
		nodes: c.IDMap,
		ids:   keys,
		cur:   -1,
	}
}

// Edge returns the edge between the two identifiers (nil if none exists).
func (c CGraph) Edge(uid, vid int64) graph.Edge {
	ue := c.Edges[uid]
	if ue != nil {
		if ue[vid] {
			return CEdge{from: c.IDMap[uid], to: c.IDMap[vid]}
		}
	}
	return nil
}

// *************** Nodes implementation **********************

// CNode wraps a plain int64 node id to implement the gonum graph.Node
// interface.
type CNode struct {
	id    int64
	label string
}

// ID returns the id of the node.
func (n CNode) ID() int64 {
	return n.id
}

func (n CNode) String() string {
	if n.label != "" {
		return n.label
	}
	return ""
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of
// nodes.
type NodeSet struct {
	nodes map[int64]CNode
	ids   []int64
	cur   int
}

// Next moves the current node to the next, and returns true if such a
// node exists. Otherwise returns false and the current node is
// unchanged.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the length of the node set.
func (ns *NodeSet) Len() int {
	return len(ns.ids)
}

// Reset resets the current index of the iterator.
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node in the set.
func (ns *NodeSet) Node() graph.Node {
	return ns.nodes[ns.ids[ns.cur]]
}

// *************** Edge implementation **********************

// CEdge implements the gonum graph.Edge interface.
type CEdge struct {
	from CNode
	to   CNode
}

// From returns the origin of the edge.
func (e CEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge.
func (e CEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge.
func (e CEdge) ReversedEdge() graph.Edge {
	return CEdge{from: e.to, to: e.from}
}
