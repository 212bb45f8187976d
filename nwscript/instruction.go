package nwscript

// AddressType tags the special role of an instruction address, as
// supplied by the disassembler.
type AddressType int

const (
	AddressTypeNone AddressType = iota
	AddressTypeTail
	AddressTypeJumpLabel
	AddressTypeStoreState
	AddressTypeSubRoutine
)

// kOpcodeMaxArgumentCount bounds the number of direct arguments an
// instruction can carry.
const kOpcodeMaxArgumentCount = 3

// Instruction is a single NWScript bytecode instruction, as produced by
// the disassembler. Address, Opcode, Type, Args and Block are inputs;
// Stack and Variables are written by the analyzer.
type Instruction struct {
	Address uint32

	Opcode Opcode
	Type   InstructionType

	ArgCount int
	Args     [kOpcodeMaxArgumentCount]int32
	ArgTypes [kOpcodeMaxArgumentCount]OpcodeArgument

	// ConstValue* hold the decoded operand of a CONST instruction; only
	// the field matching Type is meaningful.
	ConstValueInt    int32
	ConstValueFloat  float32
	ConstValueObject uint32
	ConstValueString string

	AddressType AddressType

	// Block is the enclosing basic block.
	Block *Block

	// Stack is the snapshot of the current subroutine's stack frame
	// immediately before this instruction executes. Written once by the
	// block walker; restricted to at most the enclosing subroutine's
	// own frame depth.
	Stack *Stack

	// Variables lists, in encounter order, every Variable this
	// instruction created, read, or wrote.
	Variables []*Variable
}

// RecordVariable appends v to this instruction's Variables list if it is
// not already present (cheap de-dup for opcodes that both read and write
// the same variable in one handler).
func (i *Instruction) RecordVariable(v *Variable) {
	for _, existing := range i.Variables {
		if existing == v {
			return
		}
	}
	i.Variables = append(i.Variables, v)
}

// Block is a maximal straight-line run of instructions with a single
// entry and single exit (branch or fall-through), as produced by the
// disassembler. Children/ChildrenTypes are parallel slices of CFG
// successor edges. StackAnalyzeState is analyzer-writable.
type Block struct {
	Address uint32

	Instructions []*Instruction

	Children       []*Block
	ChildrenTypes  []BlockEdgeType
	SubRoutine     *SubRoutine

	StackAnalyzeState StackAnalyzeState
}

// StackAnalyzeState is the memoization state of a Block or SubRoutine
// during stack analysis.
type StackAnalyzeState int

const (
	StackAnalyzeStateUnvisited StackAnalyzeState = iota
	StackAnalyzeStateInProgress
	StackAnalyzeStateFinished
)

// SubRoutine is a connected subgraph of Blocks with a designated entry
// block (Blocks[0]), entered via JSR and exited via RETN. Params and
// Returns and StackAnalyzeState are analyzer-writable; once a subroutine
// reaches Finished its Params/Returns lists are never reshaped again
// (only individual variable types may still be unified on re-entry).
type SubRoutine struct {
	Address uint32

	Blocks []*Block

	// Params is the callee's formal parameters, in stack-top-down order
	// as consumed from the caller (the order MOVSP clears them in).
	Params []*Variable

	// Returns is the return slots the caller allocated for this
	// subroutine, in stack-top-down order.
	Returns []*Variable

	StackAnalyzeState StackAnalyzeState
}
