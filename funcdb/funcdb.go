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

/*
Package funcdb loads the engine-function signature table the stack
analyzer queries for every ACTION opcode: each game ships its own table
of callable engine functions (id, parameter types, return type), and
none of that is encoded in the bytecode itself.

A database file is YAML, keyed by game identifier:

	games:
	  nwn:
	    - id: 0
	      name: Random
	      params: [int]
	      returns: int
	    - id: 1
	      name: PrintString
	      params: [string]
	      returns: void

Use [Load] to parse a database file into a *DB, which implements
nwscript.FunctionTable.
*/
package funcdb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xoreos-tools/nwscript-analyzer/analysis/functional"
	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

// entry is the on-disk shape of one engine function signature.
type entry struct {
	ID      int32    `yaml:"id"`
	Name    string   `yaml:"name"`
	Params  []string `yaml:"params"`
	Returns string   `yaml:"returns"`
}

// fileFormat is the on-disk shape of a whole database file.
type fileFormat struct {
	Games map[string][]entry `yaml:"games"`
}

// function is the parsed, type-resolved form of one entry.
type function struct {
	name    string
	params  []nwscript.VariableType
	returns nwscript.VariableType
}

// DB is an in-memory engine-function signature table for one or more
// games, implementing nwscript.FunctionTable.
type DB struct {
	games map[nwscript.GameID]map[int32]function
}

var gameNames = map[string]nwscript.GameID{
	"nwn":        nwscript.GameIDNWN,
	"nwn2":       nwscript.GameIDNWN2,
	"kotor":      nwscript.GameIDKotOR,
	"kotor2":     nwscript.GameIDKotOR2,
	"jade":       nwscript.GameIDJade,
	"witcher":    nwscript.GameIDWitcher,
	"dragonage":  nwscript.GameIDDragonAge,
	"dragonage2": nwscript.GameIDDragonAge2,
}

var typeNames = map[string]nwscript.VariableType{
	"void":    nwscript.VariableTypeVoid,
	"int":     nwscript.VariableTypeInt,
	"float":   nwscript.VariableTypeFloat,
	"string":  nwscript.VariableTypeString,
	"resref":  nwscript.VariableTypeResRef,
	"object":  nwscript.VariableTypeObject,
	"vector":  nwscript.VariableTypeVector,
	"action":  nwscript.VariableTypeScriptState,
	"engine0": nwscript.VariableTypeEngineType0,
	"engine1": nwscript.VariableTypeEngineType1,
	"engine2": nwscript.VariableTypeEngineType2,
	"engine3": nwscript.VariableTypeEngineType3,
	"engine4": nwscript.VariableTypeEngineType4,
	"engine5": nwscript.VariableTypeEngineType5,
}

// Load reads and parses a YAML engine-function database at filename.
func Load(filename string) (*DB, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read function database %q: %w", filename, err)
	}

	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse function database %q: %w", filename, err)
	}

	db := &DB{games: make(map[nwscript.GameID]map[int32]function)}

	for gameName, entries := range raw.Games {
		game, ok := gameNames[gameName]
		if !ok {
			return nil, fmt.Errorf("function database %q: unknown game %q", filename, gameName)
		}

		table := make(map[int32]function, len(entries))
		for _, e := range entries {
			fn, err := resolveEntry(e)
			if err != nil {
				return nil, fmt.Errorf("function database %q: game %q: %w", filename, gameName, err)
			}
			table[e.ID] = fn
		}
		db.games[game] = table
	}

	return db, nil
}

func resolveEntry(e entry) (function, error) {
	returns, ok := typeNames[e.Returns]
	if !ok {
		return function{}, fmt.Errorf("function %q (id %d): unknown return type %q", e.Name, e.ID, e.Returns)
	}

	params := make([]nwscript.VariableType, len(e.Params))
	for i, p := range e.Params {
		typ, ok := typeNames[p]
		if !ok {
			return function{}, fmt.Errorf("function %q (id %d): unknown parameter type %q", e.Name, e.ID, p)
		}
		params[i] = typ
	}

	return function{name: e.Name, params: params, returns: returns}, nil
}

// ParameterCount implements nwscript.FunctionTable.
func (db *DB) ParameterCount(game nwscript.GameID, id int32) (int, bool) {
	opt := db.lookup(game, id)
	return functional.MapOption(opt, func(fn function) int { return len(fn.params) }).ValueOr(0), opt.IsSome()
}

// ParameterTypes implements nwscript.FunctionTable.
func (db *DB) ParameterTypes(game nwscript.GameID, id int32) ([]nwscript.VariableType, bool) {
	opt := db.lookup(game, id)
	if opt.IsNone() {
		return nil, false
	}
	params := opt.Value().params
	out := make([]nwscript.VariableType, len(params))
	copy(out, params)
	return out, true
}

// ReturnType implements nwscript.FunctionTable.
func (db *DB) ReturnType(game nwscript.GameID, id int32) (nwscript.VariableType, bool) {
	opt := db.lookup(game, id)
	return functional.MapOption(opt, func(fn function) nwscript.VariableType { return fn.returns }).
		ValueOr(nwscript.VariableTypeVoid), opt.IsSome()
}

// Name returns the engine function's declared name, for diagnostics and
// report rendering. Returns "" if id is unknown for game.
func (db *DB) Name(game nwscript.GameID, id int32) string {
	return functional.MapOption(db.lookup(game, id), func(fn function) string { return fn.name }).ValueOr("")
}

func (db *DB) lookup(game nwscript.GameID, id int32) functional.Optional[function] {
	table, ok := db.games[game]
	if !ok {
		return functional.None[function]()
	}
	fn, ok := table[id]
	if !ok {
		return functional.None[function]()
	}
	return functional.Some(fn)
}
