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
	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

// handlerFunc implements the abstract semantics of one opcode (or family
// of opcodes): it mutates ctx's stack and variable store and returns an
// error if the instruction violates one of the analyzer's invariants.
type handlerFunc func(ctx *Context) error

// handlers is the opcode dispatch table. An opcode with no entry is
// stack-neutral (NOP, unconditional JMP, reserved/placeholder opcodes)
// and is skipped.
var handlers map[nwscript.Opcode]handlerFunc

func init() {
	handlers = buildHandlerTable()
}

func buildHandlerTable() map[nwscript.Opcode]handlerFunc {
	h := map[nwscript.Opcode]handlerFunc{
		nwscript.OpcodeRSADD:     handlePush,
		nwscript.OpcodeCONST:    handlePush,
		nwscript.OpcodeCPTOPSP:  handleCPTOPSP,
		nwscript.OpcodeCPDOWNSP: handleCPDOWNSP,
		nwscript.OpcodeCPTOPBP:  handleCPTOPBP,
		nwscript.OpcodeCPDOWNBP: handleCPDOWNBP,
		nwscript.OpcodeACTION:   handleACTION,

		nwscript.OpcodeLOGAND:  handleBool,
		nwscript.OpcodeLOGOR:   handleBool,
		nwscript.OpcodeINCOR:   handleBool,
		nwscript.OpcodeEXCOR:   handleBool,
		nwscript.OpcodeBOOLAND: handleBool,

		nwscript.OpcodeEQ:  handleEq,
		nwscript.OpcodeNEQ: handleEq,
		nwscript.OpcodeGEQ: handleEq,
		nwscript.OpcodeGT:  handleEq,
		nwscript.OpcodeLT:  handleEq,
		nwscript.OpcodeLEQ: handleEq,

		nwscript.OpcodeSHLEFT:   handleShift,
		nwscript.OpcodeSHRIGHT:  handleShift,
		nwscript.OpcodeUSHRIGHT: handleShift,

		nwscript.OpcodeADD: handleBinArithm,
		nwscript.OpcodeSUB: handleBinArithm,
		nwscript.OpcodeMUL: handleBinArithm,
		nwscript.OpcodeDIV: handleBinArithm,
		nwscript.OpcodeMOD: handleBinArithm,

		nwscript.OpcodeNEG:  handleUnArithm,
		nwscript.OpcodeCOMP: handleUnArithm,
		nwscript.OpcodeNOT:  handleUnArithm,

		nwscript.OpcodeMOVSP: handlePop,

		nwscript.OpcodeJSR:  handleJSR,
		nwscript.OpcodeJZ:   handleCond,
		nwscript.OpcodeJNZ:  handleCond,
		nwscript.OpcodeRETN: handleRETN,

		nwscript.OpcodeDESTRUCT: handleDestruct,

		nwscript.OpcodeSAVEBP:    handleSAVEBP,
		nwscript.OpcodeRESTOREBP: handleRESTOREBP,

		nwscript.OpcodeDECSP: handleModifySP,
		nwscript.OpcodeINCSP: handleModifySP,
		nwscript.OpcodeDECBP: handleModifyBP,
		nwscript.OpcodeINCBP: handleModifyBP,
	}
	return h
}

// decodeOffsetSize decodes a stack-manipulating opcode's byte offset/size
// pair into a 0-based stack index and entry count, per spec.md §4.3:
// stack_index = (offset / -4) - 1, count = size / 4. offset must be <= -4
// and a multiple of 4; size must be a non-negative multiple of 4.
func decodeOffsetSize(op nwscript.Opcode, addr uint32, offset, size int32) (index, count int, err error) {
	if size < 0 || size%4 != 0 || offset > -4 || offset%4 != 0 {
		return 0, 0, newError(MalformedOperand, addr, op.String(),
			"invalid arguments %d, %d", offset, size)
	}
	return int(offset/-4) - 1, int(size / 4), nil
}

func handlePush(ctx *Context) error {
	typ := nwscript.InstructionTypeToVariableType(ctx.Instruction.Type)
	ctx.pushVariable(typ, nwscript.VariableUseLocal)
	return nil
}

func handlePop(ctx *Context) error {
	arg := ctx.Instruction.Args[0]
	if arg > 0 || arg%4 != 0 {
		return newError(MalformedOperand, ctx.Instruction.Address, "MOVSP", "invalid argument %d", arg)
	}

	size := int(arg / -4)
	for size > 0 {
		size--

		if ctx.Stack.Empty() {
			return newError(StackUnderrun, ctx.Instruction.Address, "MOVSP", "stack underrun")
		}

		if ctx.SubStack == 0 {
			// The subroutine is clearing its parameters from the stack:
			// connect the parameter with the caller stack element before
			// removing it, and count it as belonging to our own frame so
			// popVariable's bookkeeping stays balanced.
			ctx.SubStack++
			ctx.Sub.Params = append(ctx.Sub.Params, ctx.Stack.At(0))
		}

		ctx.popVariable(false)
	}
	return nil
}

func handleJSR(ctx *Context) error {
	if ctx.Mode == ModeGlobal {
		return nil
	}

	branchBlock := jsrTargetBlock(ctx.Instruction)
	if branchBlock == nil || branchBlock.SubRoutine == nil {
		return newError(MalformedOperand, ctx.Instruction.Address, "JSR", "no callee subroutine")
	}

	return walkSubRoutine(ctx, branchBlock.SubRoutine)
}

// jsrTargetBlock finds the callee entry block a JSR instruction targets.
// By convention (mirroring the disassembler contract this analyzer
// assumes), the callee's entry block is the first child of the JSR's
// enclosing block whose edge type is FunctionCall.
func jsrTargetBlock(instr *nwscript.Instruction) *nwscript.Block {
	if instr.Block == nil || len(instr.Block.Children) == 0 {
		return nil
	}
	for i, ct := range instr.Block.ChildrenTypes {
		if ct == nwscript.BlockEdgeTypeFunctionCall {
			return instr.Block.Children[i]
		}
	}
	return nil
}

func handleRETN(ctx *Context) error {
	if ctx.SubRETN {
		return nil
	}

	// Return values live in the same stack space as parameters and are
	// offset by the number of parameters; trim that many entries off
	// the front of Returns before adopting it as canonical.
	subParams := len(ctx.Sub.Params)
	if len(ctx.Sub.Returns) < subParams {
		subParams = len(ctx.Sub.Returns)
	}
	ctx.Sub.Returns = ctx.Sub.Returns[subParams:]

	ctx.ReturnStack = ctx.Stack.Clone()
	ctx.SubRETN = true
	return nil
}

func handleCPTOPSP(ctx *Context) error {
	offset, size, err := decodeOffsetSize(nwscript.OpcodeCPTOPSP, ctx.Instruction.Address,
		ctx.Instruction.Args[0], ctx.Instruction.Args[1])
	if err != nil {
		return err
	}

	if offset >= ctx.Stack.Len() {
		return newError(StackUnderrun, ctx.Instruction.Address, "CPTOPSP", "stack underrun")
	}

	for size > 0 {
		size--
		ctx.duplicateVariable(offset)
	}
	return nil
}

func handleCPDOWNSP(ctx *Context) error {
	offset, size, err := decodeOffsetSize(nwscript.OpcodeCPDOWNSP, ctx.Instruction.Address,
		ctx.Instruction.Args[0], ctx.Instruction.Args[1])
	if err != nil {
		return err
	}

	if size > ctx.Stack.Len() || offset >= ctx.Stack.Len() {
		return newError(StackUnderrun, ctx.Instruction.Address, "CPDOWNSP", "stack underrun")
	}

	for size > 0 {
		pos := size - 1

		typ := ctx.readVariable(pos)
		if typ == nwscript.VariableTypeAny {
			typ = ctx.Stack.At(offset).Type
			ctx.Stack.At(pos).Type = typ
		}
		ctx.writeVariableType(offset, typ)

		if !ctx.SubRETN && offset >= ctx.SubStack {
			underrun := offset - ctx.SubStack + 1
			if len(ctx.Sub.Returns) < underrun {
				grown := make([]*nwscript.Variable, underrun)
				copy(grown, ctx.Sub.Returns)
				ctx.Sub.Returns = grown
			}
			ctx.Sub.Returns[underrun-1] = ctx.Stack.At(offset)
		}

		offset--
		size--
	}
	return nil
}

func handleCPTOPBP(ctx *Context) error {
	offset, size, err := decodeOffsetSize(nwscript.OpcodeCPTOPBP, ctx.Instruction.Address,
		ctx.Instruction.Args[0], ctx.Instruction.Args[1])
	if err != nil {
		return err
	}

	if ctx.Globals == nil {
		return newError(MissingContext, ctx.Instruction.Address, "CPTOPBP", "no context globals")
	}
	if offset >= ctx.Globals.Len() || size > offset+1 {
		return newError(StackUnderrun, ctx.Instruction.Address, "CPTOPBP", "globals underrun")
	}

	for size > 0 {
		size--

		g := ctx.Globals.At(offset)
		g.Readers = append(g.Readers, ctx.Instruction)
		ctx.Instruction.RecordVariable(g)

		ctx.pushVariable(g.Type, nwscript.VariableUseLocal)
		offset--
	}
	return nil
}

func handleCPDOWNBP(ctx *Context) error {
	offset, size, err := decodeOffsetSize(nwscript.OpcodeCPDOWNBP, ctx.Instruction.Address,
		ctx.Instruction.Args[0], ctx.Instruction.Args[1])
	if err != nil {
		return err
	}

	if ctx.Globals == nil {
		return newError(MissingContext, ctx.Instruction.Address, "CPDOWNBP", "no context globals")
	}
	if offset >= ctx.Globals.Len() || size > offset+1 {
		return newError(StackUnderrun, ctx.Instruction.Address, "CPDOWNBP", "globals underrun")
	}

	for size > 0 {
		pos := size - 1

		typ := ctx.readVariable(pos)
		g := ctx.Globals.At(offset)
		if typ == nwscript.VariableTypeAny {
			typ = g.Type
			ctx.Stack.At(pos).Type = typ
		}

		g.Writers = append(g.Writers, ctx.Instruction)
		ctx.Instruction.RecordVariable(g)
		g.Type = typ

		offset--
		size--
	}
	return nil
}

func handleACTION(ctx *Context) error {
	function := ctx.Instruction.Args[0]
	paramCount := ctx.Instruction.Args[1]

	if function < 0 || paramCount < 0 {
		return newError(MalformedOperand, ctx.Instruction.Address, "ACTION",
			"invalid arguments %d, %d", function, paramCount)
	}

	declaredCount, ok := ctx.Functions.ParameterCount(ctx.Game, function)
	if !ok {
		return newError(MalformedOperand, ctx.Instruction.Address, "ACTION",
			"unknown function id %d", function)
	}
	if declaredCount < int(paramCount) {
		return newError(MalformedOperand, ctx.Instruction.Address, "ACTION",
			"invalid number of parameters (%d < %d)", declaredCount, paramCount)
	}

	types, ok := ctx.Functions.ParameterTypes(ctx.Game, function)
	if !ok {
		return newError(MalformedOperand, ctx.Instruction.Address, "ACTION",
			"unknown function id %d", function)
	}

	for i := 0; i < int(paramCount); i++ {
		declared := types[i]
		typ := declared
		n := 1
		if declared == nwscript.VariableTypeVector {
			typ = nwscript.VariableTypeFloat
			n = 3
		}

		if declared == nwscript.VariableTypeScriptState {
			continue
		}

		for ; n > 0; n-- {
			if ctx.Stack.Empty() {
				return newError(StackUnderrun, ctx.Instruction.Address, "ACTION", "stack underrun")
			}
			if !ctx.checkVariableType(0, typ) {
				return newError(TypeMismatch, ctx.Instruction.Address, "ACTION", "parameter type mismatch")
			}
			ctx.setVariableType(0, typ)
			ctx.popVariable(true)
		}
	}

	returnType, ok := ctx.Functions.ReturnType(ctx.Game, function)
	if !ok {
		return newError(MalformedOperand, ctx.Instruction.Address, "ACTION",
			"unknown function id %d", function)
	}

	switch returnType {
	case nwscript.VariableTypeVoid:
		return nil
	case nwscript.VariableTypeVector:
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
	default:
		ctx.pushVariable(returnType, nwscript.VariableUseLocal)
	}
	return nil
}

func handleBool(ctx *Context) error {
	if ctx.Stack.Len() < 2 {
		return newError(StackUnderrun, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "stack underrun")
	}
	if !ctx.checkVariableType(0, nwscript.VariableTypeInt) || !ctx.checkVariableType(1, nwscript.VariableTypeInt) {
		return newError(TypeMismatch, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "invalid types")
	}

	ctx.setVariableType(0, nwscript.VariableTypeInt)
	ctx.setVariableType(1, nwscript.VariableTypeInt)

	ctx.popVariable(true)
	ctx.popVariable(true)

	ctx.pushVariable(nwscript.VariableTypeInt, nwscript.VariableUseLocal)
	return nil
}

func handleEq(ctx *Context) error {
	instr := ctx.Instruction
	size := 1
	if instr.ArgCount == 1 {
		if instr.Args[0] < 0 || instr.Args[0]%4 != 0 {
			return newError(MalformedOperand, instr.Address, instr.Opcode.String(), "invalid argument %d", instr.Args[0])
		}
		size = int(instr.Args[0] / 4)
	}

	if ctx.Stack.Len() < size {
		return newError(StackUnderrun, instr.Address, instr.Opcode.String(), "stack underrun")
	}
	if ctx.Stack.Len() < 2*size {
		return newError(StackUnderrun, instr.Address, instr.Opcode.String(), "stack underrun")
	}

	left := make([]*nwscript.Variable, size)
	right := make([]*nwscript.Variable, size)

	for i := 0; i < size; i++ {
		left[i] = ctx.popVariable(true)
	}
	for i := 0; i < size; i++ {
		right[i] = ctx.popVariable(true)
	}

	for i := 0; i < size; i++ {
		sameVariableType(left[i], right[i])
	}

	ctx.pushVariable(nwscript.VariableTypeInt, nwscript.VariableUseLocal)
	return nil
}

func handleShift(ctx *Context) error {
	if ctx.Stack.Len() < 2 {
		return newError(StackUnderrun, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "stack underrun")
	}
	if !ctx.checkVariableType(0, nwscript.VariableTypeInt) || !ctx.checkVariableType(1, nwscript.VariableTypeInt) {
		return newError(TypeMismatch, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "invalid types")
	}

	ctx.setVariableType(0, nwscript.VariableTypeInt)
	ctx.setVariableType(1, nwscript.VariableTypeInt)

	ctx.popVariable(true)
	ctx.popVariable(true)

	ctx.pushVariable(nwscript.VariableTypeInt, nwscript.VariableUseLocal)
	return nil
}

func handleUnArithm(ctx *Context) error {
	if ctx.Stack.Empty() {
		return newError(StackUnderrun, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "stack underrun")
	}

	typ := nwscript.InstructionTypeToVariableType(ctx.Instruction.Type)
	if typ == nwscript.VariableTypeVoid {
		return newError(TypeMismatch, ctx.Instruction.Address, ctx.Instruction.Opcode.String(),
			"invalid instruction type %d", ctx.Instruction.Type)
	}
	if !ctx.checkVariableType(0, typ) {
		return newError(TypeMismatch, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "invalid types")
	}

	ctx.setVariableType(0, typ)
	ctx.popVariable(true)
	ctx.pushVariable(typ, nwscript.VariableUseLocal)
	return nil
}

func handleBinArithm(ctx *Context) error {
	instr := ctx.Instruction
	if ctx.Stack.Len() < 2 {
		return newError(StackUnderrun, instr.Address, instr.Opcode.String(), "stack underrun")
	}

	switch instr.Type {
	case nwscript.InstTypeIntInt, nwscript.InstTypeFloatFloat, nwscript.InstTypeStringString,
		nwscript.InstTypeEngineType0EngineType0, nwscript.InstTypeEngineType1EngineType1,
		nwscript.InstTypeEngineType2EngineType2, nwscript.InstTypeEngineType3EngineType3,
		nwscript.InstTypeEngineType4EngineType4, nwscript.InstTypeEngineType5EngineType5:

		typ := nwscript.InstructionTypeToVariableType(homogeneousBinType(instr.Type))
		if !ctx.checkVariableType(0, typ) || !ctx.checkVariableType(1, typ) {
			return newError(TypeMismatch, instr.Address, instr.Opcode.String(), "invalid types")
		}
		ctx.setVariableType(0, typ)
		ctx.popVariable(true)
		ctx.setVariableType(0, typ)
		ctx.popVariable(true)
		ctx.pushVariable(typ, nwscript.VariableUseLocal)
		return nil

	case nwscript.InstTypeIntFloat:
		if !ctx.checkVariableType(0, nwscript.VariableTypeFloat) || !ctx.checkVariableType(1, nwscript.VariableTypeInt) {
			return newError(TypeMismatch, instr.Address, instr.Opcode.String(), "invalid types")
		}
		ctx.setVariableType(0, nwscript.VariableTypeFloat)
		ctx.setVariableType(1, nwscript.VariableTypeInt)
		ctx.popVariable(true)
		ctx.popVariable(true)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		return nil

	case nwscript.InstTypeFloatInt:
		if !ctx.checkVariableType(0, nwscript.VariableTypeInt) || !ctx.checkVariableType(1, nwscript.VariableTypeFloat) {
			return newError(TypeMismatch, instr.Address, instr.Opcode.String(), "invalid types")
		}
		ctx.setVariableType(0, nwscript.VariableTypeInt)
		ctx.setVariableType(1, nwscript.VariableTypeFloat)
		ctx.popVariable(true)
		ctx.popVariable(true)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		return nil

	case nwscript.InstTypeVectorVector:
		if ctx.Stack.Len() < 6 {
			return newError(StackUnderrun, instr.Address, instr.Opcode.String(), "stack underrun")
		}
		for i := 0; i < 6; i++ {
			if !ctx.checkVariableType(i, nwscript.VariableTypeFloat) {
				return newError(TypeMismatch, instr.Address, instr.Opcode.String(), "invalid types")
			}
		}
		for i := 0; i < 6; i++ {
			ctx.setVariableType(0, nwscript.VariableTypeFloat)
			ctx.popVariable(true)
		}
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		return nil

	case nwscript.InstTypeVectorFloat, nwscript.InstTypeFloatVector:
		if ctx.Stack.Len() < 4 {
			return newError(StackUnderrun, instr.Address, instr.Opcode.String(), "stack underrun")
		}
		for i := 0; i < 4; i++ {
			if !ctx.checkVariableType(i, nwscript.VariableTypeFloat) {
				return newError(TypeMismatch, instr.Address, instr.Opcode.String(), "invalid types")
			}
		}
		for i := 0; i < 4; i++ {
			ctx.setVariableType(0, nwscript.VariableTypeFloat)
			ctx.popVariable(true)
		}
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		ctx.pushVariable(nwscript.VariableTypeFloat, nwscript.VariableUseLocal)
		return nil

	default:
		return newError(TypeMismatch, instr.Address, instr.Opcode.String(), "invalid instruction type")
	}
}

// homogeneousBinType maps a homogeneous binary InstructionType tag back
// to the single InstructionType nwscript.InstructionTypeToVariableType
// knows how to translate (e.g. IntInt -> Int).
func homogeneousBinType(t nwscript.InstructionType) nwscript.InstructionType {
	switch t {
	case nwscript.InstTypeIntInt:
		return nwscript.InstTypeInt
	case nwscript.InstTypeFloatFloat:
		return nwscript.InstTypeFloat
	case nwscript.InstTypeStringString:
		return nwscript.InstTypeString
	case nwscript.InstTypeEngineType0EngineType0:
		return nwscript.InstTypeEngineType0
	case nwscript.InstTypeEngineType1EngineType1:
		return nwscript.InstTypeEngineType1
	case nwscript.InstTypeEngineType2EngineType2:
		return nwscript.InstTypeEngineType2
	case nwscript.InstTypeEngineType3EngineType3:
		return nwscript.InstTypeEngineType3
	case nwscript.InstTypeEngineType4EngineType4:
		return nwscript.InstTypeEngineType4
	case nwscript.InstTypeEngineType5EngineType5:
		return nwscript.InstTypeEngineType5
	default:
		return nwscript.InstTypeNone
	}
}

func handleCond(ctx *Context) error {
	if ctx.Stack.Empty() {
		return newError(StackUnderrun, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "stack underrun")
	}
	if !ctx.checkVariableType(0, nwscript.VariableTypeInt) {
		return newError(TypeMismatch, ctx.Instruction.Address, ctx.Instruction.Opcode.String(), "invalid types")
	}
	ctx.setVariableType(0, nwscript.VariableTypeInt)
	ctx.popVariable(true)
	return nil
}

func handleDestruct(ctx *Context) error {
	instr := ctx.Instruction
	stackSize := instr.Args[0]
	dontRemoveOffset := instr.Args[1]
	dontRemoveSize := instr.Args[2]

	if stackSize%4 != 0 || dontRemoveOffset%4 != 0 || dontRemoveSize%4 != 0 ||
		stackSize < 0 || dontRemoveOffset < 0 || dontRemoveSize < 0 {
		return newError(MalformedOperand, instr.Address, "DESTRUCT",
			"invalid arguments %d, %d, %d", stackSize, dontRemoveOffset, dontRemoveSize)
	}

	if int(stackSize) > ctx.Stack.Len()*4 {
		return newError(StackUnderrun, instr.Address, "DESTRUCT", "stack underrun")
	}

	var kept []*nwscript.Variable

	for stackSize > 0 {
		if stackSize <= dontRemoveOffset+dontRemoveSize && stackSize > dontRemoveOffset {
			kept = append(kept, ctx.Stack.At(0))
		}
		ctx.popVariable(false)
		stackSize -= 4
	}

	for i := len(kept) - 1; i >= 0; i-- {
		ctx.SubStack++
		ctx.Stack.PushFront(kept[i])
	}
	return nil
}

func handleSAVEBP(ctx *Context) error {
	if ctx.Mode != ModeGlobal {
		return newError(Protocol, ctx.Instruction.Address, "SAVEBP", "found outside of globals analysis")
	}
	if ctx.Globals == nil {
		return newError(MissingContext, ctx.Instruction.Address, "SAVEBP", "no context globals")
	}
	if !ctx.Globals.Empty() {
		return newError(Protocol, ctx.Instruction.Address, "SAVEBP", "encountered multiple SAVEBP calls")
	}

	ctx.Globals.Assign(ctx.Stack)

	dummySize := ctx.dummyFrameSize()
	if ctx.Globals.Len() < dummySize {
		dummySize = ctx.Globals.Len()
	}
	ctx.Globals.Assign(ctx.Globals.Truncate(ctx.Globals.Len() - dummySize))

	for i := 0; i < ctx.Globals.Len(); i++ {
		ctx.Globals.At(i).Use = nwscript.VariableUseGlobal
	}

	ctx.pushVariable(nwscript.VariableTypeInt, nwscript.VariableUseLocal)
	return nil
}

func handleRESTOREBP(ctx *Context) error {
	if ctx.Stack.Empty() {
		return newError(StackUnderrun, ctx.Instruction.Address, "RESTOREBP", "stack underrun")
	}
	ctx.popVariable(true)
	return nil
}

func handleModifySP(ctx *Context) error {
	instr := ctx.Instruction
	offset := instr.Args[0]
	if offset > -4 || offset%4 != 0 {
		return newError(MalformedOperand, instr.Address, instr.Opcode.String(), "invalid argument %d", offset)
	}

	idx := int(offset/-4) - 1
	if idx >= ctx.Stack.Len() || idx < 0 {
		return newError(StackUnderrun, instr.Address, instr.Opcode.String(), "stack underrun")
	}
	if !ctx.checkVariableType(idx, nwscript.VariableTypeInt) {
		return newError(TypeMismatch, instr.Address, instr.Opcode.String(), "invalid types")
	}

	ctx.setVariableType(idx, nwscript.VariableTypeInt)
	ctx.readVariable(idx)
	ctx.writeVariable(idx)
	return nil
}

func handleModifyBP(ctx *Context) error {
	instr := ctx.Instruction
	if ctx.Globals == nil {
		return newError(MissingContext, instr.Address, instr.Opcode.String(), "no context globals")
	}

	offset := instr.Args[0]
	if offset > -4 || offset%4 != 0 {
		return newError(MalformedOperand, instr.Address, instr.Opcode.String(), "invalid argument %d", offset)
	}

	idx := int(offset/-4) - 1
	if idx >= ctx.Globals.Len() || idx < 0 {
		return newError(StackUnderrun, instr.Address, instr.Opcode.String(), "globals underrun")
	}

	g := ctx.Globals.At(idx)
	g.Readers = append(g.Readers, instr)
	g.Writers = append(g.Writers, instr)
	instr.RecordVariable(g)
	return nil
}
