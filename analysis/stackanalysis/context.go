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

// Package stackanalysis implements the stack/type analyzer for NWScript
// bytecode: an abstract interpretation of the operand stack that infers
// variables, their types, their readers/writers, each subroutine's
// parameters and return values, and the program's global variables.
package stackanalysis

import (
	"github.com/xoreos-tools/nwscript-analyzer/analysis/config"
	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

// Mode selects which of the two analysis entry points is in progress.
type Mode int

const (
	// ModeGlobal analyzes only the global-initializer subroutine, in
	// isolation: JSR is inert and SAVEBP is the only opcode permitted
	// to define the globals stack.
	ModeGlobal Mode = iota

	// ModeSubRoutine analyzes complete normal control flow starting
	// from an entry subroutine, following JSR into callees.
	ModeSubRoutine
)

// DummyFrameSize is the number of Any-typed entries seeded at the bottom
// of every fresh subroutine stack, representing the unknown caller
// context (spec.md's DUMMY_FRAME constant).
const DummyFrameSize = 32

// Context carries all mutable state threaded through a single analysis
// run. A Context is never shared between concurrent analyses; exactly one
// walker mutates it at a time (see spec.md's concurrency model).
type Context struct {
	Mode Mode

	Sub         *nwscript.SubRoutine
	Block       *nwscript.Block
	Instruction *nwscript.Instruction

	Variables *nwscript.VariableSpace
	Functions nwscript.FunctionTable
	Game      nwscript.GameID

	Stack   *nwscript.Stack
	Globals *nwscript.Stack

	// SubStack is the number of stack entries belonging to the current
	// subroutine's own frame (as opposed to caller-owned parameter/
	// return slots or the dummy frame below them).
	SubStack int

	// SubRETN is true once a RETN has fired anywhere reachable in the
	// current subroutine's control flow.
	SubRETN bool

	// ReturnStack is the stack snapshot captured at the first RETN
	// reached along any path, propagated up through the block walker.
	ReturnStack *nwscript.Stack

	// DummyFrameSize overrides DummyFrameSize when non-zero (set from
	// config.Config.DummyFrameSize by the caller that builds the
	// Context).
	DummyFrameSize int

	// MaxCallDepth bounds live JSR nesting (set from
	// config.Config.MaxSubroutineDepth); 0 means unbounded. This is
	// distinct from the Recursion check: a long but acyclic call chain
	// through distinct subroutines never re-enters an InProgress
	// subroutine, so only this depth bound limits it.
	MaxCallDepth int

	// CallDepth is the number of JSR frames currently nested.
	CallDepth int

	Log *config.LogGroup
}

// dummyFrameSize returns the configured dummy frame size, or the package
// default if the context did not set one.
func (ctx *Context) dummyFrameSize() int {
	if ctx.DummyFrameSize > 0 {
		return ctx.DummyFrameSize
	}
	return DummyFrameSize
}

// clone returns a shallow copy of the context. Every pointer field is
// shared with the original, the Stack pointer included; a caller that
// wants an independent stack replaces Stack explicitly.
func (ctx *Context) clone() *Context {
	cp := *ctx
	return &cp
}

func (ctx *Context) logf(format string, args ...any) {
	if ctx.Log != nil {
		ctx.Log.Tracef(format, args...)
	}
}

// addVariable allocates a fresh variable with the given type and use,
// crediting the current instruction as its creator.
func (ctx *Context) addVariable(typ nwscript.VariableType, use nwscript.VariableUse) *nwscript.Variable {
	v := ctx.Variables.Allocate(typ, use, ctx.Instruction)
	if ctx.Instruction != nil {
		ctx.Instruction.RecordVariable(v)
	}
	return v
}

// pushVariable allocates a fresh variable and pushes it onto the active
// stack, growing the current subroutine's own frame depth.
func (ctx *Context) pushVariable(typ nwscript.VariableType, use nwscript.VariableUse) *nwscript.Variable {
	v := ctx.addVariable(typ, use)
	ctx.SubStack++
	ctx.Stack.PushFront(v)
	return v
}

// popVariable pops the top of the active stack. If reading is true (the
// default for every handler except parameter/return cleanup), the
// current instruction is recorded as a reader of the popped variable.
func (ctx *Context) popVariable(reading bool) *nwscript.Variable {
	if reading {
		ctx.readVariable(0)
	}
	v := ctx.Stack.PopFront()
	ctx.SubStack--
	return v
}

// readVariable records the current instruction as a reader of the
// variable at the given stack offset (0 = top) and returns its type.
func (ctx *Context) readVariable(offset int) nwscript.VariableType {
	v := ctx.Stack.At(offset)
	v.Readers = append(v.Readers, ctx.Instruction)
	ctx.Instruction.RecordVariable(v)
	return v.Type
}

// writeVariable records the current instruction as a writer of the
// variable at the given stack offset.
func (ctx *Context) writeVariable(offset int) {
	v := ctx.Stack.At(offset)
	v.Writers = append(v.Writers, ctx.Instruction)
	ctx.Instruction.RecordVariable(v)
}

// writeVariableType is writeVariable plus refining the variable's type,
// unless typ is VariableTypeAny (refining to bottom is never valid).
func (ctx *Context) writeVariableType(offset int, typ nwscript.VariableType) {
	if typ != nwscript.VariableTypeAny {
		ctx.Stack.At(offset).Type = typ
	}
	ctx.writeVariable(offset)
}

// duplicateVariable duplicates the stack entry at offset onto the top of
// the stack: allocates a fresh variable of the source's current type,
// records the source as read, and links the two as duplicates for later
// type unification.
func (ctx *Context) duplicateVariable(offset int) {
	source := ctx.Stack.At(offset)
	source.Readers = append(source.Readers, ctx.Instruction)
	ctx.Instruction.RecordVariable(source)

	dup := ctx.pushVariable(source.Type, nwscript.VariableUseLocal)
	nwscript.RecordDuplicate(source, dup)
}

// checkVariableType reports whether the variable at offset is compatible
// with the required type: either it is still VariableTypeAny (anything
// is compatible with bottom) or it already holds exactly that type.
func (ctx *Context) checkVariableType(offset int, typ nwscript.VariableType) bool {
	v := ctx.Stack.At(offset).Type
	return v == nwscript.VariableTypeAny || v == typ
}

// setVariableType refines the variable at offset to typ, unless typ is
// VariableTypeAny.
func (ctx *Context) setVariableType(offset int, typ nwscript.VariableType) {
	if typ != nwscript.VariableTypeAny {
		ctx.Stack.At(offset).Type = typ
	}
}

// sameVariableType unifies two variables' types: if one is still Any, it
// adopts the other's type, then both are set to the resulting type.
func sameVariableType(v1, v2 *nwscript.Variable) {
	if v1 == nil || v2 == nil {
		return
	}
	typ := v1.Type
	if typ == nwscript.VariableTypeAny {
		typ = v2.Type
	}
	v1.Type = typ
	v2.Type = typ
}
