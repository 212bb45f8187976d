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
	"strings"
	"testing"

	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

func TestDiagnoseRecursionAcyclic(t *testing.T) {
	callee := sub(0x2000, block(0x2000, instr(0x2000, nwscript.OpcodeRETN, 0)))

	entryBlock := block(0x1000, instr(0x1000, nwscript.OpcodeJSR, 0), instr(0x1004, nwscript.OpcodeRETN, 0))
	link(entryBlock, nwscript.BlockEdgeTypeFunctionCall, callee.Blocks[0])
	entry := sub(0x1000, entryBlock)

	diag := DiagnoseRecursion(entry)
	if !diag.Acyclic {
		t.Fatalf("expected an acyclic call graph, got cycles: %v", diag.Cycles)
	}
	if len(diag.Cycles) != 0 {
		t.Fatalf("expected no cycles, got %d", len(diag.Cycles))
	}
}

func TestDiagnoseRecursionCycle(t *testing.T) {
	aBlock := block(0x1000, instr(0x1000, nwscript.OpcodeJSR, 0))
	bBlock := block(0x2000, instr(0x2000, nwscript.OpcodeJSR, 0))
	a := sub(0x1000, aBlock)
	b := sub(0x2000, bBlock)
	_ = b
	link(aBlock, nwscript.BlockEdgeTypeFunctionCall, bBlock)
	link(bBlock, nwscript.BlockEdgeTypeFunctionCall, aBlock)

	diag := DiagnoseRecursion(a)
	if diag.Acyclic {
		t.Fatal("expected a cyclic call graph")
	}
	if len(diag.Cycles) == 0 {
		t.Fatal("expected at least one elementary cycle")
	}

	found := false
	for _, cycle := range diag.Cycles {
		rendered := FormatCycle(cycle)
		if strings.Contains(rendered, "@00001000") && strings.Contains(rendered, "@00002000") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cycle mentioning both subroutines, got %v", diag.Cycles)
	}
}

func TestFormatCycle(t *testing.T) {
	got := FormatCycle([]uint32{0x1000, 0x2000, 0x1000})
	want := "@00001000 -> @00002000 -> @00001000"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
