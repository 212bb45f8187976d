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

// fakeFunctionTable is a tiny nwscript.FunctionTable stub for tests that
// never touch the real engine-function database.
type fakeFunctionTable struct {
	params  map[int32][]nwscript.VariableType
	returns map[int32]nwscript.VariableType
}

func (f *fakeFunctionTable) ParameterCount(_ nwscript.GameID, id int32) (int, bool) {
	p, ok := f.params[id]
	return len(p), ok
}

func (f *fakeFunctionTable) ParameterTypes(_ nwscript.GameID, id int32) ([]nwscript.VariableType, bool) {
	p, ok := f.params[id]
	return p, ok
}

func (f *fakeFunctionTable) ReturnType(_ nwscript.GameID, id int32) (nwscript.VariableType, bool) {
	r, ok := f.returns[id]
	return r, ok
}

// block is a small helper to keep the hand-built graphs in this file
// readable.
func block(addr uint32, instrs ...*nwscript.Instruction) *nwscript.Block {
	b := &nwscript.Block{Address: addr, Instructions: instrs}
	for _, i := range instrs {
		i.Block = b
	}
	return b
}

func link(from *nwscript.Block, edge nwscript.BlockEdgeType, to *nwscript.Block) {
	from.Children = append(from.Children, to)
	from.ChildrenTypes = append(from.ChildrenTypes, edge)
}

func sub(addr uint32, blocks ...*nwscript.Block) *nwscript.SubRoutine {
	s := &nwscript.SubRoutine{Address: addr, Blocks: blocks}
	for _, b := range blocks {
		b.SubRoutine = s
	}
	return s
}

func instr(addr uint32, op nwscript.Opcode, typ nwscript.InstructionType, args ...int32) *nwscript.Instruction {
	i := &nwscript.Instruction{Address: addr, Opcode: op, Type: typ}
	i.ArgCount = len(args)
	for n, a := range args {
		i.Args[n] = a
	}
	return i
}

func TestParameterCapture(t *testing.T) {
	calleeEntry := block(0x2000, instr(0x2000, nwscript.OpcodeMOVSP, 0, -4), instr(0x2004, nwscript.OpcodeRETN, 0))
	callee := sub(0x2000, calleeEntry)

	callerEntry := block(0x1000,
		instr(0x1000, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1004, nwscript.OpcodeJSR, 0),
		instr(0x1008, nwscript.OpcodeRETN, 0))
	link(callerEntry, nwscript.BlockEdgeTypeFunctionCall, calleeEntry)
	caller := sub(0x1000, callerEntry)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 4}

	finalStack, err := AnalyzeSubRoutineStack(caller, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(callee.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(callee.Params))
	}
	if callee.Params[0].Type != nwscript.VariableTypeInt {
		t.Fatalf("expected Int param, got %s", callee.Params[0].Type)
	}
	if finalStack.Len() != 4 {
		t.Fatalf("expected caller stack depth 4 (dummy only), got %d", finalStack.Len())
	}

	movsp := calleeEntry.Instructions[0]
	if movsp.Stack.Len() != 0 {
		t.Fatalf("expected empty frame-restricted snapshot at MOVSP, got %d entries", movsp.Stack.Len())
	}
}

func TestReturnCapture(t *testing.T) {
	calleeEntry := block(0x2000,
		instr(0x2000, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x2004, nwscript.OpcodeCPDOWNSP, 0, -8, 4),
		instr(0x2008, nwscript.OpcodeMOVSP, 0, -4),
		instr(0x200C, nwscript.OpcodeRETN, 0))
	callee := sub(0x2000, calleeEntry)

	callerEntry := block(0x1000,
		instr(0x1000, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1004, nwscript.OpcodeJSR, 0),
		instr(0x1008, nwscript.OpcodeRETN, 0))
	link(callerEntry, nwscript.BlockEdgeTypeFunctionCall, calleeEntry)
	caller := sub(0x1000, callerEntry)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 4}

	finalStack, err := AnalyzeSubRoutineStack(caller, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(callee.Returns) != 1 {
		t.Fatalf("expected 1 return, got %d", len(callee.Returns))
	}
	if callee.Returns[0].Type != nwscript.VariableTypeInt {
		t.Fatalf("expected Int return, got %s", callee.Returns[0].Type)
	}
	if finalStack.Len() != 5 {
		t.Fatalf("expected caller stack depth 5 (dummy + 1 returned int), got %d", finalStack.Len())
	}
	if finalStack.At(0).Type != nwscript.VariableTypeInt {
		t.Fatalf("expected the returned int on top, got %s", finalStack.At(0).Type)
	}
}

func TestVectorAction(t *testing.T) {
	const vectorFunc int32 = 42

	entryBlock := block(0x1000,
		instr(0x1000, nwscript.OpcodeRSADD, nwscript.InstTypeFloat),
		instr(0x1004, nwscript.OpcodeRSADD, nwscript.InstTypeFloat),
		instr(0x1008, nwscript.OpcodeRSADD, nwscript.InstTypeFloat),
		instr(0x100C, nwscript.OpcodeACTION, 0, vectorFunc, 1),
		instr(0x1010, nwscript.OpcodeRETN, 0))
	entry := sub(0x1000, entryBlock)

	vars := nwscript.NewVariableSpace()
	functions := &fakeFunctionTable{
		params:  map[int32][]nwscript.VariableType{vectorFunc: {nwscript.VariableTypeVector}},
		returns: map[int32]nwscript.VariableType{vectorFunc: nwscript.VariableTypeVector},
	}
	cfg := &config.Config{DummyFrameSize: 2}

	actionInstr := entryBlock.Instructions[3]

	finalStack, err := AnalyzeSubRoutineStack(entry, vars, nwscript.GameIDNWN, functions, nil, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if actionInstr.Stack.Len() != 3 {
		t.Fatalf("expected 3 floats on the pre-ACTION snapshot, got %d", actionInstr.Stack.Len())
	}
	for i := 0; i < 3; i++ {
		if actionInstr.Stack.At(i).Type != nwscript.VariableTypeFloat {
			t.Fatalf("expected Float at offset %d before ACTION, got %s", i, actionInstr.Stack.At(i).Type)
		}
	}

	if finalStack.Len() != 2+3 {
		t.Fatalf("expected dummy + 3 returned floats, got %d", finalStack.Len())
	}
	for i := 0; i < 3; i++ {
		if finalStack.At(i).Type != nwscript.VariableTypeFloat {
			t.Fatalf("expected returned Float at offset %d, got %s", i, finalStack.At(i).Type)
		}
	}
}

func TestDuplicateTyping(t *testing.T) {
	entryBlock := block(0x1000,
		instr(0x1000, nwscript.OpcodeCONST, nwscript.InstTypeFloat),
		instr(0x1004, nwscript.OpcodeCPTOPSP, 0, -4, 4),
		instr(0x1008, nwscript.OpcodeRETN, 0))
	entry := sub(0x1000, entryBlock)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 1}

	finalStack, err := AnalyzeSubRoutineStack(entry, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if finalStack.Len() != 3 {
		t.Fatalf("expected 3 entries (source + duplicate + dummy), got %d", finalStack.Len())
	}
	source := finalStack.At(1)
	dup := finalStack.At(0)
	if source.Type != nwscript.VariableTypeFloat || dup.Type != nwscript.VariableTypeFloat {
		t.Fatalf("expected both source and duplicate to be Float, got %s and %s", source.Type, dup.Type)
	}
}

func TestRecursionDetected(t *testing.T) {
	entryBlock := block(0x1000, instr(0x1000, nwscript.OpcodeJSR, 0))
	entry := sub(0x1000, entryBlock)
	link(entryBlock, nwscript.BlockEdgeTypeFunctionCall, entryBlock)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 4}

	_, err := AnalyzeSubRoutineStack(entry, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil)
	if err == nil {
		t.Fatal("expected a Recursion error, got nil")
	}
	analysisErr, ok := err.(*AnalysisError)
	if !ok {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Category != Recursion {
		t.Fatalf("expected Recursion, got %s", analysisErr.Category)
	}
}

// A chain of three distinct (non-cyclic) subroutines exceeds a configured
// MaxSubroutineDepth of 2: the cycle-detection InProgress check never
// fires, but the explicit depth bound still rejects the walk.
func TestMaxSubroutineDepthExceeded(t *testing.T) {
	cBlock := block(0x3000, instr(0x3000, nwscript.OpcodeRETN, 0))
	sub(0x3000, cBlock)

	bBlock := block(0x2000, instr(0x2000, nwscript.OpcodeJSR, 0), instr(0x2004, nwscript.OpcodeRETN, 0))
	link(bBlock, nwscript.BlockEdgeTypeFunctionCall, cBlock)
	sub(0x2000, bBlock)

	aBlock := block(0x1000, instr(0x1000, nwscript.OpcodeJSR, 0), instr(0x1004, nwscript.OpcodeRETN, 0))
	link(aBlock, nwscript.BlockEdgeTypeFunctionCall, bBlock)
	a := sub(0x1000, aBlock)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 4, MaxSubroutineDepth: 2}

	_, err := AnalyzeSubRoutineStack(a, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, nil, cfg, nil)
	if err == nil {
		t.Fatal("expected a Recursion error from exceeding MaxSubroutineDepth, got nil")
	}
	analysisErr, ok := err.(*AnalysisError)
	if !ok {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Category != Recursion {
		t.Fatalf("expected Recursion, got %s", analysisErr.Category)
	}
}

func TestSAVEBPGlobals(t *testing.T) {
	entryBlock := block(0x1000,
		instr(0x1000, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1004, nwscript.OpcodeRSADD, nwscript.InstTypeFloat),
		instr(0x1008, nwscript.OpcodeRSADD, nwscript.InstTypeString),
		instr(0x100C, nwscript.OpcodeRSADD, nwscript.InstTypeObject),
		instr(0x1010, nwscript.OpcodeRSADD, nwscript.InstTypeInt),
		instr(0x1014, nwscript.OpcodeSAVEBP, 0),
		instr(0x1018, nwscript.OpcodeRETN, 0))
	entry := sub(0x1000, entryBlock)

	vars := nwscript.NewVariableSpace()
	cfg := &config.Config{DummyFrameSize: 2}

	globals, err := AnalyzeGlobals(entry, vars, nwscript.GameIDNWN, &fakeFunctionTable{}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if globals.Len() != 5 {
		t.Fatalf("expected 5 globals, got %d", globals.Len())
	}

	wantTypes := []nwscript.VariableType{
		nwscript.VariableTypeInt,
		nwscript.VariableTypeObject,
		nwscript.VariableTypeString,
		nwscript.VariableTypeFloat,
		nwscript.VariableTypeInt,
	}
	for i, want := range wantTypes {
		g := globals.At(i)
		if g.Type != want {
			t.Fatalf("global[%d]: expected %s, got %s", i, want, g.Type)
		}
		if g.Use != nwscript.VariableUseGlobal {
			t.Fatalf("global[%d]: expected Use=Global, got %s", i, g.Use)
		}
	}
}
