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
	"encoding/json"
	"fmt"
	"os"

	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

// programFile is the on-disk JSON shape this front-end accepts in place
// of a real disassembler: a pre-built instruction/block/subroutine
// graph. Nothing downstream of loadProgram cares how the graph was
// produced.
type programFile struct {
	Game        string           `json:"game"`
	Entry       uint32           `json:"entry"`
	Globals     uint32           `json:"globals"`
	Subroutines []subroutineFile `json:"subroutines"`
}

type subroutineFile struct {
	Address uint32      `json:"address"`
	Blocks  []blockFile `json:"blocks"`
}

type blockFile struct {
	Address      uint32           `json:"address"`
	Instructions []instructionFile `json:"instructions"`
	Children     []childFile      `json:"children"`
}

type childFile struct {
	Block uint32 `json:"block"`
	Type  string `json:"type"`
}

type instructionFile struct {
	Address uint32   `json:"address"`
	Opcode  string   `json:"opcode"`
	Type    int      `json:"type"`
	Args    []int32  `json:"args"`
}

var gameIDs = map[string]nwscript.GameID{
	"nwn":        nwscript.GameIDNWN,
	"nwn2":       nwscript.GameIDNWN2,
	"kotor":      nwscript.GameIDKotOR,
	"kotor2":     nwscript.GameIDKotOR2,
	"jade":       nwscript.GameIDJade,
	"witcher":    nwscript.GameIDWitcher,
	"dragonage":  nwscript.GameIDDragonAge,
	"dragonage2": nwscript.GameIDDragonAge2,
}

var opcodeByName = buildOpcodeByName()

func buildOpcodeByName() map[string]nwscript.Opcode {
	m := map[string]nwscript.Opcode{}
	for op := 0; op < 0x43; op++ {
		name := nwscript.Opcode(op).String()
		if name != "UNKNOWN" {
			m[name] = nwscript.Opcode(op)
		}
	}
	return m
}

var edgeTypes = map[string]nwscript.BlockEdgeType{
	"":             nwscript.BlockEdgeTypeUnconditional,
	"unconditional": nwscript.BlockEdgeTypeUnconditional,
	"true":          nwscript.BlockEdgeTypeConditionalTrue,
	"false":         nwscript.BlockEdgeTypeConditionalFalse,
	"call":          nwscript.BlockEdgeTypeFunctionCall,
	"storestate":    nwscript.BlockEdgeTypeStoreState,
}

// loadedProgram is the in-memory graph plus lookup indices the CLI needs
// after loading.
type loadedProgram struct {
	game        nwscript.GameID
	entry       *nwscript.SubRoutine
	hasGlobals  bool
	globalsSub  *nwscript.SubRoutine
	subroutines []*nwscript.SubRoutine
}

// loadProgram reads filename as a programFile and builds the
// corresponding nwscript graph in two passes: first allocating every
// Block/SubRoutine by address, then wiring instructions and successor
// edges now that every address is resolvable.
func loadProgram(filename string) (*loadedProgram, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program file %q: %w", filename, err)
	}

	var raw programFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse program file %q: %w", filename, err)
	}

	game, ok := gameIDs[raw.Game]
	if !ok {
		return nil, fmt.Errorf("program file %q: unknown game %q", filename, raw.Game)
	}

	blocksByAddr := map[uint32]*nwscript.Block{}
	subsByAddr := map[uint32]*nwscript.SubRoutine{}

	for _, sf := range raw.Subroutines {
		sub := &nwscript.SubRoutine{Address: sf.Address}
		subsByAddr[sf.Address] = sub

		for _, bf := range sf.Blocks {
			block := &nwscript.Block{Address: bf.Address, SubRoutine: sub}
			blocksByAddr[bf.Address] = block
			sub.Blocks = append(sub.Blocks, block)
		}
	}

	for _, sf := range raw.Subroutines {
		sub := subsByAddr[sf.Address]
		for bi, bf := range sf.Blocks {
			block := sub.Blocks[bi]

			for _, inf := range bf.Instructions {
				op, ok := opcodeByName[inf.Opcode]
				if !ok {
					return nil, fmt.Errorf("program file %q: unknown opcode %q at @%08X", filename, inf.Opcode, inf.Address)
				}

				instr := &nwscript.Instruction{
					Address: inf.Address,
					Opcode:  op,
					Type:    nwscript.InstructionType(inf.Type),
					Block:   block,
				}
				instr.ArgCount = len(inf.Args)
				for i, a := range inf.Args {
					if i >= len(instr.Args) {
						break
					}
					instr.Args[i] = a
				}
				block.Instructions = append(block.Instructions, instr)
			}

			for _, cf := range bf.Children {
				child, ok := blocksByAddr[cf.Block]
				if !ok {
					return nil, fmt.Errorf("program file %q: block @%08X references unknown child @%08X", filename, bf.Address, cf.Block)
				}
				edge, ok := edgeTypes[cf.Type]
				if !ok {
					return nil, fmt.Errorf("program file %q: block @%08X: unknown edge type %q", filename, bf.Address, cf.Type)
				}
				block.Children = append(block.Children, child)
				block.ChildrenTypes = append(block.ChildrenTypes, edge)
			}
		}
	}

	entry, ok := subsByAddr[raw.Entry]
	if !ok {
		return nil, fmt.Errorf("program file %q: entry subroutine @%08X not found", filename, raw.Entry)
	}

	lp := &loadedProgram{game: game, entry: entry}
	for _, sub := range subsByAddr {
		lp.subroutines = append(lp.subroutines, sub)
	}

	if raw.Globals != 0 {
		globalsSub, ok := subsByAddr[raw.Globals]
		if !ok {
			return nil, fmt.Errorf("program file %q: globals subroutine @%08X not found", filename, raw.Globals)
		}
		lp.hasGlobals = true
		lp.globalsSub = globalsSub
	}

	return lp, nil
}
