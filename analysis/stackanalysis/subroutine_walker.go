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

import "github.com/xoreos-tools/nwscript-analyzer/nwscript"

// walkSubRoutine analyzes sub against ctx.Stack, which already carries, at
// its top, the caller's argument slots and/or a dummy frame. It owns the
// full save/restore of ctx.Sub/Block/SubStack/SubRETN/ReturnStack around
// the walk: callers (the JSR handler, the globals driver, and the
// top-level entry point) simply invoke it and inherit ctx.Stack's final
// shape.
func walkSubRoutine(ctx *Context, sub *nwscript.SubRoutine) error {
	switch sub.StackAnalyzeState {
	case nwscript.StackAnalyzeStateFinished:
		return reconcileSubRoutine(ctx, sub)
	case nwscript.StackAnalyzeStateInProgress:
		return newError(Recursion, ctx.Instruction.Address, "JSR", "recursion in subroutine @%08X", sub.Address)
	}

	if ctx.MaxCallDepth > 0 && ctx.CallDepth >= ctx.MaxCallDepth {
		return newError(Recursion, ctx.Instruction.Address, "JSR", "call depth exceeds configured maximum of %d entering @%08X", ctx.MaxCallDepth, sub.Address)
	}

	sub.StackAnalyzeState = nwscript.StackAnalyzeStateInProgress
	ctx.CallDepth++
	savedSub := ctx.Sub
	savedBlock := ctx.Block
	savedInstruction := ctx.Instruction
	savedSubStack := ctx.SubStack
	savedSubRETN := ctx.SubRETN
	savedReturnStack := ctx.ReturnStack

	ctx.Sub = sub
	ctx.SubStack = 0
	ctx.SubRETN = false
	ctx.ReturnStack = nil

	err := walkBlock(ctx, sub.Blocks[0])

	if err == nil {
		if ctx.ReturnStack != nil {
			ctx.Stack.Assign(ctx.ReturnStack)
		} else {
			ctx.logf("subroutine @%08X never reached RETN", sub.Address)
		}
	}

	paramCount := len(sub.Params)

	ctx.CallDepth--
	ctx.Sub = savedSub
	ctx.Block = savedBlock
	ctx.Instruction = savedInstruction
	ctx.SubRETN = savedSubRETN
	ctx.ReturnStack = savedReturnStack
	ctx.SubStack = savedSubStack - paramCount

	if err != nil {
		sub.StackAnalyzeState = nwscript.StackAnalyzeStateUnvisited
		return err
	}

	sub.StackAnalyzeState = nwscript.StackAnalyzeStateFinished
	ctx.Variables.FixupTypes()
	return nil
}

// reconcileSubRoutine handles a JSR that targets an already-Finished
// subroutine: its params/returns shape is fixed, so this only pops the
// caller's argument slots (unifying each with the stored parameter's
// type) and cross-checks the return slots already sitting on top of the
// caller stack, without touching stack depth for the returns.
func reconcileSubRoutine(ctx *Context, sub *nwscript.SubRoutine) error {
	for _, p := range sub.Params {
		if ctx.Stack.Empty() {
			return newError(StackUnderrun, ctx.Instruction.Address, "JSR", "stack underrun reconciling parameter of @%08X", sub.Address)
		}
		v := ctx.popVariable(false)
		sameVariableType(v, p)
	}

	n := len(sub.Returns)
	for i := 0; i < n; i++ {
		offset := n - 1 - i
		if offset >= ctx.Stack.Len() {
			return newError(StackUnderrun, ctx.Instruction.Address, "JSR", "stack underrun reconciling return of @%08X", sub.Address)
		}
		sameVariableType(ctx.Stack.At(offset), sub.Returns[i])
	}
	return nil
}
