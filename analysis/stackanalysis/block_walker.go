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

// dispatch runs the opcode handler registered for instr, if any. Opcodes
// with no handler (NOP, unconditional JMP, JSR-target placeholders,
// reserved values) are stack-neutral.
func dispatch(ctx *Context, instr *nwscript.Instruction) error {
	h, ok := handlers[instr.Opcode]
	if !ok {
		return nil
	}
	return h(ctx)
}

// walkBlock performs the memoized recursive walk of a single basic block
// and, transitively, every block reachable from it along non-call,
// non-store-state edges. ctx.Stack is the caller-supplied active stack;
// on return it holds the stack as this block's own instructions left it
// (each successor is walked on a clone), with ctx.ReturnStack/ctx.SubRETN
// set if a RETN was reached along any path.
func walkBlock(ctx *Context, block *nwscript.Block) error {
	switch block.StackAnalyzeState {
	case nwscript.StackAnalyzeStateFinished:
		return nil
	case nwscript.StackAnalyzeStateInProgress:
		return newError(Recursion, block.Address, "", "recursion in block @%08X", block.Address)
	}

	block.StackAnalyzeState = nwscript.StackAnalyzeStateInProgress
	ctx.Block = block

	for _, instr := range block.Instructions {
		ctx.Instruction = instr
		instr.Stack = ctx.Stack.Truncate(ctx.SubStack)

		if err := dispatch(ctx, instr); err != nil {
			return err
		}
	}

	block.StackAnalyzeState = nwscript.StackAnalyzeStateFinished

	entryStack := ctx.Stack
	entrySubStack := ctx.SubStack

	for i, child := range block.Children {
		edge := nwscript.BlockEdgeTypeUnconditional
		if i < len(block.ChildrenTypes) {
			edge = block.ChildrenTypes[i]
		}
		if edge == nwscript.BlockEdgeTypeFunctionCall || edge == nwscript.BlockEdgeTypeStoreState {
			continue
		}

		ctx.Stack = entryStack.Clone()
		ctx.SubStack = entrySubStack
		err := walkBlock(ctx, child)
		ctx.Stack = entryStack
		ctx.SubStack = entrySubStack

		if err != nil {
			return err
		}
	}

	return nil
}
