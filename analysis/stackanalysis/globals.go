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
	"github.com/xoreos-tools/nwscript-analyzer/analysis/config"
	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

// newDummyStack seeds a fresh operand stack with n Any-typed entries,
// representing the unknown caller context below every fresh subroutine
// frame (spec.md's DUMMY_FRAME).
func newDummyStack(vs *nwscript.VariableSpace, n int) *nwscript.Stack {
	s := nwscript.NewStack()
	for i := 0; i < n; i++ {
		v := vs.Allocate(nwscript.VariableTypeAny, nwscript.VariableUseUnknown, nil)
		s.PushFront(v)
	}
	return s
}

// AnalyzeGlobals runs the global-initializer subroutine in isolation:
// JSR is inert and SAVEBP is the sole event that crystallizes the
// globals list. It returns the resulting globals stack (top = last
// global declared).
func AnalyzeGlobals(
	sub *nwscript.SubRoutine,
	variables *nwscript.VariableSpace,
	game nwscript.GameID,
	functions nwscript.FunctionTable,
	cfg *config.Config,
	log *config.LogGroup,
) (*nwscript.Stack, error) {
	ctx := &Context{
		Mode:      ModeGlobal,
		Variables: variables,
		Functions: functions,
		Game:      game,
		Globals:   nwscript.NewStack(),
		Log:       log,
	}
	if cfg != nil {
		ctx.DummyFrameSize = cfg.DummyFrameSize
		ctx.MaxCallDepth = cfg.MaxSubroutineDepth
	}
	ctx.Stack = newDummyStack(variables, ctx.dummyFrameSize())

	if err := walkSubRoutine(ctx, sub); err != nil {
		return nil, err
	}
	return ctx.Globals, nil
}

// AnalyzeSubRoutineStack runs full stack analysis over sub and every
// subroutine transitively reached via JSR, given the already-analyzed
// globals stack (nil if the program declares no globals). This is the
// analyzer's main entry point for a script's entry-point subroutine
// (main/StartingConditional) as well as for analyzing an arbitrary
// subroutine in isolation (e.g. from a test or a REPL-style tool).
func AnalyzeSubRoutineStack(
	sub *nwscript.SubRoutine,
	variables *nwscript.VariableSpace,
	game nwscript.GameID,
	functions nwscript.FunctionTable,
	globals *nwscript.Stack,
	cfg *config.Config,
	log *config.LogGroup,
) (*nwscript.Stack, error) {
	ctx := &Context{
		Mode:      ModeSubRoutine,
		Variables: variables,
		Functions: functions,
		Game:      game,
		Globals:   globals,
		Log:       log,
	}
	if cfg != nil {
		ctx.DummyFrameSize = cfg.DummyFrameSize
		ctx.MaxCallDepth = cfg.MaxSubroutineDepth
	}
	ctx.Stack = newDummyStack(variables, ctx.dummyFrameSize())

	if err := walkSubRoutine(ctx, sub); err != nil {
		return nil, err
	}
	return ctx.Stack, nil
}
