// Package nwscript holds the data model shared by the stack/type analyzer:
// the bytecode enums, the abstract stack, and the instruction/block/
// subroutine graph produced by a disassembler.
package nwscript

// Opcode identifies what an Instruction does.
type Opcode byte

// The full NWScript opcode set, as used by the Aurora-engine virtual
// machine. Values and names match the bytecode exactly; gaps in the
// numbering are reserved/unused opcodes.
const (
	OpcodeCPDOWNSP      Opcode = 0x01
	OpcodeRSADD         Opcode = 0x02
	OpcodeCPTOPSP       Opcode = 0x03
	OpcodeCONST         Opcode = 0x04
	OpcodeACTION        Opcode = 0x05
	OpcodeLOGAND        Opcode = 0x06
	OpcodeLOGOR         Opcode = 0x07
	OpcodeINCOR         Opcode = 0x08
	OpcodeEXCOR         Opcode = 0x09
	OpcodeBOOLAND       Opcode = 0x0A
	OpcodeEQ            Opcode = 0x0B
	OpcodeNEQ           Opcode = 0x0C
	OpcodeGEQ           Opcode = 0x0D
	OpcodeGT            Opcode = 0x0E
	OpcodeLT            Opcode = 0x0F
	OpcodeLEQ           Opcode = 0x10
	OpcodeSHLEFT        Opcode = 0x11
	OpcodeSHRIGHT       Opcode = 0x12
	OpcodeUSHRIGHT      Opcode = 0x13
	OpcodeADD           Opcode = 0x14
	OpcodeSUB           Opcode = 0x15
	OpcodeMUL           Opcode = 0x16
	OpcodeDIV           Opcode = 0x17
	OpcodeMOD           Opcode = 0x18
	OpcodeNEG           Opcode = 0x19
	OpcodeCOMP          Opcode = 0x1A
	OpcodeMOVSP         Opcode = 0x1B
	OpcodeSTORESTATEALL Opcode = 0x1C
	OpcodeJMP           Opcode = 0x1D
	OpcodeJSR           Opcode = 0x1E
	OpcodeJZ            Opcode = 0x1F
	OpcodeRETN          Opcode = 0x20
	OpcodeDESTRUCT      Opcode = 0x21
	OpcodeNOT           Opcode = 0x22
	OpcodeDECSP         Opcode = 0x23
	OpcodeINCSP         Opcode = 0x24
	OpcodeJNZ           Opcode = 0x25
	OpcodeCPDOWNBP      Opcode = 0x26
	OpcodeCPTOPBP       Opcode = 0x27
	OpcodeDECBP         Opcode = 0x28
	OpcodeINCBP         Opcode = 0x29
	OpcodeSAVEBP        Opcode = 0x2A
	OpcodeRESTOREBP     Opcode = 0x2B
	OpcodeSTORESTATE    Opcode = 0x2C
	OpcodeNOP           Opcode = 0x2D
	OpcodeWRITEARRAY    Opcode = 0x30
	OpcodeREADARRAY     Opcode = 0x32
	OpcodeGETREF        Opcode = 0x37
	OpcodeGETREFARRAY   Opcode = 0x39
	OpcodeSCRIPTSIZE    Opcode = 0x42

	// opcodeMax is one past the highest opcode value that can appear in a
	// well-formed program.
	opcodeMax = 0x43
)

var opcodeNames = map[Opcode]string{
	OpcodeCPDOWNSP:      "CPDOWNSP",
	OpcodeRSADD:         "RSADD",
	OpcodeCPTOPSP:       "CPTOPSP",
	OpcodeCONST:         "CONST",
	OpcodeACTION:        "ACTION",
	OpcodeLOGAND:        "LOGAND",
	OpcodeLOGOR:         "LOGOR",
	OpcodeINCOR:         "INCOR",
	OpcodeEXCOR:         "EXCOR",
	OpcodeBOOLAND:       "BOOLAND",
	OpcodeEQ:            "EQ",
	OpcodeNEQ:           "NEQ",
	OpcodeGEQ:           "GEQ",
	OpcodeGT:            "GT",
	OpcodeLT:            "LT",
	OpcodeLEQ:           "LEQ",
	OpcodeSHLEFT:        "SHLEFT",
	OpcodeSHRIGHT:       "SHRIGHT",
	OpcodeUSHRIGHT:      "USHRIGHT",
	OpcodeADD:           "ADD",
	OpcodeSUB:           "SUB",
	OpcodeMUL:           "MUL",
	OpcodeDIV:           "DIV",
	OpcodeMOD:           "MOD",
	OpcodeNEG:           "NEG",
	OpcodeCOMP:          "COMP",
	OpcodeMOVSP:         "MOVSP",
	OpcodeSTORESTATEALL: "STORESTATEALL",
	OpcodeJMP:           "JMP",
	OpcodeJSR:           "JSR",
	OpcodeJZ:            "JZ",
	OpcodeRETN:          "RETN",
	OpcodeDESTRUCT:      "DESTRUCT",
	OpcodeNOT:           "NOT",
	OpcodeDECSP:         "DECSP",
	OpcodeINCSP:         "INCSP",
	OpcodeJNZ:           "JNZ",
	OpcodeCPDOWNBP:      "CPDOWNBP",
	OpcodeCPTOPBP:       "CPTOPBP",
	OpcodeDECBP:         "DECBP",
	OpcodeINCBP:         "INCBP",
	OpcodeSAVEBP:        "SAVEBP",
	OpcodeRESTOREBP:     "RESTOREBP",
	OpcodeSTORESTATE:    "STORESTATE",
	OpcodeNOP:           "NOP",
	OpcodeWRITEARRAY:    "WRITEARRAY",
	OpcodeREADARRAY:     "READARRAY",
	OpcodeGETREF:        "GETREF",
	OpcodeGETREFARRAY:   "GETREFARRAY",
	OpcodeSCRIPTSIZE:    "SCRIPTSIZE",
}

// String returns the mnemonic of the opcode, or "UNKNOWN" for an
// unrecognized value.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// InstructionType tags the operand types an instruction acts on.
type InstructionType byte

const (
	InstTypeNone   InstructionType = 0
	InstTypeDirect InstructionType = 1

	InstTypeInt      InstructionType = 3
	InstTypeFloat    InstructionType = 4
	InstTypeString   InstructionType = 5
	InstTypeObject   InstructionType = 6
	InstTypeResource InstructionType = 96

	InstTypeEngineType0 InstructionType = 16
	InstTypeEngineType1 InstructionType = 17
	InstTypeEngineType2 InstructionType = 18
	InstTypeEngineType3 InstructionType = 19
	InstTypeEngineType4 InstructionType = 20
	InstTypeEngineType5 InstructionType = 21

	InstTypeIntInt                 InstructionType = 32
	InstTypeFloatFloat             InstructionType = 33
	InstTypeObjectObject           InstructionType = 34
	InstTypeStringString           InstructionType = 35
	InstTypeStructStruct           InstructionType = 36
	InstTypeIntFloat               InstructionType = 37
	InstTypeFloatInt               InstructionType = 38
	InstTypeEngineType0EngineType0 InstructionType = 48
	InstTypeEngineType1EngineType1 InstructionType = 49
	InstTypeEngineType2EngineType2 InstructionType = 50
	InstTypeEngineType3EngineType3 InstructionType = 51
	InstTypeEngineType4EngineType4 InstructionType = 52
	InstTypeEngineType5EngineType5 InstructionType = 53
	InstTypeVectorVector           InstructionType = 58
	InstTypeVectorFloat            InstructionType = 59
	InstTypeFloatVector            InstructionType = 60
)

// InstructionTypeToVariableType derives the VariableType a Push or unary
// arithmetic instruction produces/consumes from its InstructionType tag.
// Returns VariableTypeVoid for tags that have no direct variable analog.
func InstructionTypeToVariableType(t InstructionType) VariableType {
	switch t {
	case InstTypeInt:
		return VariableTypeInt
	case InstTypeFloat:
		return VariableTypeFloat
	case InstTypeString, InstTypeResource:
		return VariableTypeString
	case InstTypeObject:
		return VariableTypeObject
	case InstTypeEngineType0:
		return VariableTypeEngineType0
	case InstTypeEngineType1:
		return VariableTypeEngineType1
	case InstTypeEngineType2:
		return VariableTypeEngineType2
	case InstTypeEngineType3:
		return VariableTypeEngineType3
	case InstTypeEngineType4:
		return VariableTypeEngineType4
	case InstTypeEngineType5:
		return VariableTypeEngineType5
	default:
		return VariableTypeVoid
	}
}

// BlockEdgeType classifies a CFG edge out of a Block.
type BlockEdgeType int

const (
	BlockEdgeTypeUnconditional BlockEdgeType = iota
	BlockEdgeTypeConditionalTrue
	BlockEdgeTypeConditionalFalse
	BlockEdgeTypeFunctionCall
	BlockEdgeTypeStoreState
)

// OpcodeArgument is the encoding of a direct instruction argument.
type OpcodeArgument int

const (
	OpcodeArgNone OpcodeArgument = iota
	OpcodeArgUint8
	OpcodeArgUint16
	OpcodeArgSint16
	OpcodeArgSint32
	OpcodeArgUint32
	OpcodeArgVariable
)

// GameID identifies which Aurora-engine game's function table to consult.
type GameID int

const (
	GameIDUnknown GameID = iota
	GameIDNWN
	GameIDNWN2
	GameIDKotOR
	GameIDKotOR2
	GameIDJade
	GameIDWitcher
	GameIDDragonAge
	GameIDDragonAge2
)
