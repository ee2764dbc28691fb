package mcda

import "errors"

// Error taxonomy from spec.md §7. UnknownMcdaMethod and EmptyCandidateSet
// are concrete sentinel errors; DegenerateDistanceSort is not an error at
// all (spec.md: "Fails with none") so it has no sentinel here — callers
// observe it via the bool the spread filter returns. NumericDegeneracy is
// handled inline by replacing NaN/Inf with zero, never surfaced as an
// error, per spec.md's "no user-visible failure" requirement.
var (
	// ErrUnknownMCDAMethod is returned when a scenario's MCDA method id is
	// outside {1, 2, 3}. Fatal for the scenario: callers must not silently
	// default to another ranker.
	ErrUnknownMCDAMethod = errors.New("mcda: unknown ranking method")

	// ErrEmptyCandidateSet is returned by BuildMatrix when the risk filter
	// removes every candidate row. Site selection treats this as
	// non-fatal: it returns zero-filled preference slices and continues.
	ErrEmptyCandidateSet = errors.New("mcda: risk filter removed all candidates")
)
