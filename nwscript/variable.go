package nwscript

// VariableType is the inferred type of a Variable. VariableTypeAny is the
// lattice bottom: every variable starts there and may be refined upward to
// a concrete type at most once (outside of the duplicate-unification pass
// in fixup, which may re-broadcast a concrete type to Any peers).
type VariableType int

const (
	VariableTypeAny VariableType = iota
	VariableTypeInt
	VariableTypeFloat
	VariableTypeString
	VariableTypeResRef
	VariableTypeObject
	VariableTypeVector
	VariableTypeEngineType0
	VariableTypeEngineType1
	VariableTypeEngineType2
	VariableTypeEngineType3
	VariableTypeEngineType4
	VariableTypeEngineType5
	VariableTypeScriptState
	VariableTypeVoid
)

func (t VariableType) String() string {
	switch t {
	case VariableTypeAny:
		return "any"
	case VariableTypeInt:
		return "int"
	case VariableTypeFloat:
		return "float"
	case VariableTypeString:
		return "string"
	case VariableTypeResRef:
		return "resref"
	case VariableTypeObject:
		return "object"
	case VariableTypeVector:
		return "vector"
	case VariableTypeEngineType0:
		return "engine0"
	case VariableTypeEngineType1:
		return "engine1"
	case VariableTypeEngineType2:
		return "engine2"
	case VariableTypeEngineType3:
		return "engine3"
	case VariableTypeEngineType4:
		return "engine4"
	case VariableTypeEngineType5:
		return "engine5"
	case VariableTypeScriptState:
		return "action"
	case VariableTypeVoid:
		return "void"
	default:
		return "unknown"
	}
}

// VariableUse classifies what role a Variable plays.
type VariableUse int

const (
	VariableUseUnknown VariableUse = iota
	VariableUseLocal
	VariableUseGlobal
	VariableUseParameter
	VariableUseReturn
)

func (u VariableUse) String() string {
	switch u {
	case VariableUseLocal:
		return "local"
	case VariableUseGlobal:
		return "global"
	case VariableUseParameter:
		return "parameter"
	case VariableUseReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Variable is an inferred storage cell: a named stack or global location
// produced by a push, duplicate, or copy-to-global, and consumed by zero or
// more readers/writers.
type Variable struct {
	// ID is this variable's dense index into the owning VariableSpace.
	ID uint32

	Type VariableType
	Use  VariableUse

	// Creator is the instruction that produced this variable (a push,
	// a duplicate, or an ACTION return value). Nil for variables
	// synthesized outside of instruction context, such as the dummy-frame
	// entries seeded before a walk starts.
	Creator *Instruction

	Readers []*Instruction
	Writers []*Instruction

	// Duplicates lists peer variables known to alias this one's logical
	// value (populated by CPTOPSP). Cleared by fixup once
	// unified; a variable created after the last fixup pass over its
	// subroutine may still carry entries if analysis is incomplete.
	Duplicates []*Variable
}

// VariableSpace is the append-only arena owning every Variable inferred
// during analysis. Indices (and therefore *Variable pointers, since a
// VariableSpace never reallocates below its current length) are stable
// for the analyzer's lifetime.
//
// Implementation note: VariableSpace stores *Variable in a slice of
// pointers rather than a slice of values so that previously-handed-out
// *Variable pointers (held by Stack, Instruction.Variables, and
// Duplicates lists) remain valid across further Allocate calls.
type VariableSpace struct {
	vars []*Variable
}

// NewVariableSpace returns an empty variable store.
func NewVariableSpace() *VariableSpace {
	return &VariableSpace{}
}

// Len returns the number of variables allocated so far.
func (vs *VariableSpace) Len() int {
	return len(vs.vars)
}

// At returns the variable with the given dense id.
func (vs *VariableSpace) At(id uint32) *Variable {
	return vs.vars[id]
}

// All returns every variable in creation order. The returned slice is
// owned by the caller but its elements alias the store's variables.
func (vs *VariableSpace) All() []*Variable {
	out := make([]*Variable, len(vs.vars))
	copy(out, vs.vars)
	return out
}

// Allocate appends a fresh variable with the given type and use, stamps
// its creator, and returns it.
func (vs *VariableSpace) Allocate(typ VariableType, use VariableUse, creator *Instruction) *Variable {
	v := &Variable{
		ID:      uint32(len(vs.vars)),
		Type:    typ,
		Use:     use,
		Creator: creator,
	}
	vs.vars = append(vs.vars, v)
	return v
}

// RecordDuplicate records that a and b hold the same logical value. Both
// variables end up with the union of their previous duplicate sets plus
// each other, so that a later fixup pass can unify an entire transitive
// clique regardless of the order duplicates were discovered in.
func RecordDuplicate(a, b *Variable) {
	if a == b {
		return
	}

	existingA := a.Duplicates
	existingB := b.Duplicates

	a.Duplicates = append(a.Duplicates, b)
	b.Duplicates = append(b.Duplicates, a)

	a.Duplicates = append(a.Duplicates, existingB...)
	b.Duplicates = append(b.Duplicates, existingA...)
}

// FixupTypes walks every variable's duplicate clique, adopts the first
// concrete type found among its peers (or VariableTypeAny if none is
// concrete), broadcasts that type to every peer, and clears the
// duplicate lists. Safe to call repeatedly; duplicate relationships
// recorded after a fixup pass are picked up by the next one.
func (vs *VariableSpace) FixupTypes() {
	for _, v := range vs.vars {
		typ := v.Type
		for _, d := range v.Duplicates {
			if d.Type != VariableTypeAny {
				typ = d.Type
				break
			}
		}

		v.Type = typ
		for _, d := range v.Duplicates {
			d.Type = typ
		}

		v.Duplicates = nil
	}
}
