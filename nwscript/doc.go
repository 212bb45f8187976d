/*
Package nwscript defines the data model for BioWare Aurora-engine NWScript
bytecode: opcodes, instruction-type tags, the abstract operand stack, and
the Instruction/Block/SubRoutine graph a disassembler hands to the stack
analyzer in package analysis/stackanalysis.

This package owns no analysis logic; it is the shared vocabulary between
the disassembler (out of scope for this module), the analyzer, and any
decompiler back-end consuming the analyzer's output.
*/
package nwscript
