package nwscript

// FunctionTable is the interface to the game-engine function database: an
// external collaborator (spec'd, not implemented, by this module) that
// knows, for a given game and ACTION function id, how many parameters the
// function declares, their types in caller-push order, and the return
// type. See package funcdb for a concrete YAML-backed implementation used
// by the CLI.
type FunctionTable interface {
	// ParameterCount returns the number of parameters function id
	// declares for the given game. ok is false if id is not a known
	// function for that game.
	ParameterCount(game GameID, id int32) (count int, ok bool)

	// ParameterTypes returns the declared parameter types, in
	// caller-push order, for function id. ok is false if id is unknown.
	ParameterTypes(game GameID, id int32) (types []VariableType, ok bool)

	// ReturnType returns the declared return type of function id. ok is
	// false if id is unknown.
	ReturnType(game GameID, id int32) (typ VariableType, ok bool)
}
