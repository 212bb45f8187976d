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
	"testing"

	"github.com/xoreos-tools/nwscript-analyzer/analysis/config"
	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

// Two JSR sites into the same callee: the first walks the body and fixes
// its Params; the second must reconcile against the already-Finished
// subroutine rather than re-walking it or growing Params again.
func TestSubroutineReconciliationIdempotent(t *testing.T) {
	calleeEntry := block(0x3000, instr(0x3000, nwscript.OpcodeMOVSP, 0, -4), instr(0x3004, nwscript.OpcodeRETN, 0))
	callee := sub(0x3000, calleeEntry)

	block3 := block(0x1010, instr(0x1010, nwscript.OpcodeRETN, 0))
	block2 := block(0x1008,
		instr(0x1008, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x100C, nwscript.OpcodeJSR, 0))
	link(block2, nwscript.BlockEdgeTypeFunctionCall, calleeEntry)
	link(block2, nwscript.BlockEdgeTypeUnconditional, block3)

	block1 := block(0x1000,
		instr(0x1000, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1004, nwscript.OpcodeJSR, 0))
	link(block1, nwscript.BlockEdgeTypeFunctionCall, calleeEntry)
	link(block1, nwscript.BlockEdgeTypeUnconditional, block2)

	caller := sub(0x1000, block1, block2, block3)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 4}

	finalStack, err := AnalyzeSubRoutineStack(caller, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if callee.StackAnalyzeState != nwscript.StackAnalyzeStateFinished {
		t.Fatalf("expected callee to be Finished, got %v", callee.StackAnalyzeState)
	}
	if len(callee.Params) != 1 {
		t.Fatalf("expected callee.Params to stay at 1 entry across both call sites, got %d", len(callee.Params))
	}
	if finalStack.Len() != 4 {
		t.Fatalf("expected dummy-only final depth 4, got %d", finalStack.Len())
	}
}

// A duplicate clique unifies to the first concrete type found among its
// members, and FixupTypes clears the Duplicates list once it has run.
func TestFixupPropagatesDuplicateType(t *testing.T) {
	vs := nwscript.NewVariableSpace()
	v1 := vs.Allocate(nwscript.VariableTypeAny, nwscript.VariableUseLocal, nil)
	v2 := vs.Allocate(nwscript.VariableTypeAny, nwscript.VariableUseLocal, nil)
	nwscript.RecordDuplicate(v1, v2)

	v2.Type = nwscript.VariableTypeObject

	vs.FixupTypes()

	if v1.Type != nwscript.VariableTypeObject {
		t.Fatalf("expected v1 to adopt v2's type, got %s", v1.Type)
	}
	if v2.Type != nwscript.VariableTypeObject {
		t.Fatalf("expected v2 to keep its type, got %s", v2.Type)
	}
	if len(v1.Duplicates) != 0 || len(v2.Duplicates) != 0 {
		t.Fatal("expected FixupTypes to clear Duplicates after unifying")
	}
}

// Every reader/writer an analysis records on a Variable must also appear
// in that Instruction's own Variables slice: no orphan cross-references in
// either direction.
func TestNoOrphanReadersWriters(t *testing.T) {
	entryBlock := block(0x1000,
		instr(0x1000, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1004, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1008, nwscript.OpcodeADD, nwscript.InstTypeIntInt),
		instr(0x100C, nwscript.OpcodeRETN, 0))
	entry := sub(0x1000, entryBlock)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 2}

	if _, err := AnalyzeSubRoutineStack(entry, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, v := range vars.All() {
		for _, instr := range v.Readers {
			if !containsVariable(instr.Variables, v) {
				t.Fatalf("variable %d is a reader of @%08X but missing from its Variables slice", v.ID, instr.Address)
			}
		}
		for _, instr := range v.Writers {
			if !containsVariable(instr.Variables, v) {
				t.Fatalf("variable %d is a writer of @%08X but missing from its Variables slice", v.ID, instr.Address)
			}
		}
	}
}

func containsVariable(vars []*nwscript.Variable, target *nwscript.Variable) bool {
	for _, v := range vars {
		if v == target {
			return true
		}
	}
	return false
}

// An instruction's recorded stack snapshot never exceeds the enclosing
// subroutine's own frame depth at the time it executed: the dummy frame
// below it stays hidden.
func TestSnapshotLocality(t *testing.T) {
	entryBlock := block(0x1000,
		instr(0x1000, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1004, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1008, nwscript.OpcodeRETN, 0))
	entry := sub(0x1000, entryBlock)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 6}

	if _, err := AnalyzeSubRoutineStack(entry, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDepths := []int{0, 1}
	for i, want := range wantDepths {
		got := entryBlock.Instructions[i].Stack.Len()
		if got != want {
			t.Fatalf("instruction %d: expected snapshot depth %d, got %d", i, want, got)
		}
	}
}
