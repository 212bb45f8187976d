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

// Command nwanalyze runs the NWScript stack/type analyzer over a
// pre-disassembled program graph and reports the inferred variables,
// subroutine signatures, and globals.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xoreos-tools/nwscript-analyzer/analysis/config"
	"github.com/xoreos-tools/nwscript-analyzer/analysis/format"
	"github.com/xoreos-tools/nwscript-analyzer/analysis/functional"
	"github.com/xoreos-tools/nwscript-analyzer/analysis/stackanalysis"
	"github.com/xoreos-tools/nwscript-analyzer/funcdb"
	"github.com/xoreos-tools/nwscript-analyzer/nwscript"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML analyzer config")
	functionDB := flag.String("functions", "", "path to a YAML engine-function database (overrides config)")
	programPath := flag.String("program", "", "path to a JSON program graph (required)")
	showCycles := flag.Bool("cycles", false, "report the subroutine call graph's elementary cycles and exit")
	writeDOT := flag.Bool("dot", false, "write a Graphviz DOT render of the subroutine call graph to reports-dir")
	flag.Parse()

	if err := run(*configFile, *functionDB, *programPath, *showCycles, *writeDOT); err != nil {
		fmt.Fprintln(os.Stderr, format.Red("error:"), err)
		os.Exit(1)
	}
}

func run(configFile, functionDBFlag, programPath string, showCycles, writeDOT bool) error {
	if programPath == "" {
		return errors.New("-program is required")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := config.NewLogGroup(cfg)

	program, err := loadProgram(programPath)
	if err != nil {
		return err
	}

	if writeDOT {
		if err := writeCallGraphDOT(cfg, program); err != nil {
			return err
		}
	}

	if showCycles {
		diag := stackanalysis.DiagnoseRecursion(program.entry)
		if diag.Acyclic {
			fmt.Println(format.Green("no cycles found in the subroutine call graph"))
			return nil
		}
		for _, cycle := range diag.Cycles {
			fmt.Println(format.Yellow(stackanalysis.FormatCycle(cycle)))
		}
		return nil
	}

	functionDBPath := functionDBFlag
	if functionDBPath == "" {
		functionDBPath = cfg.FunctionDBPath
	}
	if functionDBPath == "" {
		return errors.New("no engine-function database configured (-functions or function-db in config)")
	}

	functions, err := funcdb.Load(functionDBPath)
	if err != nil {
		return err
	}

	variables := nwscript.NewVariableSpace()

	var globals *nwscript.Stack
	if program.hasGlobals {
		globals, err = stackanalysis.AnalyzeGlobals(program.globalsSub, variables, program.game, functions, cfg, log)
		if err != nil {
			return fmt.Errorf("analyzing globals: %w", err)
		}
	}

	if _, err := stackanalysis.AnalyzeSubRoutineStack(program.entry, variables, program.game, functions, globals, cfg, log); err != nil {
		return fmt.Errorf("analyzing entry subroutine @%08X: %w", program.entry.Address, err)
	}

	printReport(program, variables, globals)
	return nil
}

// writeCallGraphDOT renders program's subroutine call graph and writes it
// to <reports-dir>/callgraph.dot. reports-dir defaults to the current
// directory when unset.
func writeCallGraphDOT(cfg *config.Config, program *loadedProgram) error {
	dir := "."
	if cfg != nil && cfg.ReportsDir != "" {
		dir = cfg.ReportsDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating reports-dir %q: %w", dir, err)
	}

	path := filepath.Join(dir, "callgraph.dot")
	if err := os.WriteFile(path, []byte(callGraphDOTForEntry(program)), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	fmt.Println(format.Faint(fmt.Sprintf("call graph written to %s", path)))
	return nil
}

func printReport(program *loadedProgram, variables *nwscript.VariableSpace, globals *nwscript.Stack) {
	fmt.Println(format.Green(fmt.Sprintf("entry subroutine @%08X analyzed successfully", program.entry.Address)))

	if globals != nil && !globals.Empty() {
		fmt.Println(format.Faint("globals:"))
		for i := 0; i < globals.Len(); i++ {
			v := globals.At(i)
			fmt.Printf("  global[%d]: %s, read at %v, written at %v\n",
				i, v.Type, sortedAddresses(v.Readers), sortedAddresses(v.Writers))
		}
	}

	for _, sub := range program.subroutines {
		fmt.Printf("%s @%08X: %d param(s), %d return(s)\n",
			format.Faint("subroutine"), sub.Address, len(sub.Params), len(sub.Returns))
		for i, p := range sub.Params {
			fmt.Printf("  param[%d]: %s\n", i, p.Type)
		}
		for i, r := range sub.Returns {
			fmt.Printf("  return[%d]: %s\n", i, r.Type)
		}
	}

	fmt.Println(format.Faint(fmt.Sprintf("%d variable(s) inferred", variables.Len())))
}

// sortedAddresses collapses a variable's reader/writer instruction list
// into its deduplicated, ascending set of addresses.
func sortedAddresses(instrs []*nwscript.Instruction) []uint32 {
	seen := map[uint32]bool{}
	for _, instr := range instrs {
		seen[instr.Address] = true
	}
	return functional.SetToOrderedSlice(seen)
}
