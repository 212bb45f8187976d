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
	"strings"
	"testing"
)

func TestCallGraphDOT(t *testing.T) {
	edges := map[uint32][]uint32{
		0x1000: {0x2000, 0x3000},
		0x2000: {0x3000},
	}

	got := callGraphDOT(0x1000, edges)

	if !strings.HasPrefix(got, "digraph callgraph {\n") {
		t.Fatalf("expected a digraph header, got:\n%s", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Fatalf("expected the digraph to be closed, got:\n%s", got)
	}
	for _, want := range []string{
		`"@00001000" -> "@00002000";`,
		`"@00001000" -> "@00003000";`,
		`"@00002000" -> "@00003000";`,
		`"@00001000" [shape=box,peripheries=2];`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected DOT output to contain %q, got:\n%s", want, got)
		}
	}
}
