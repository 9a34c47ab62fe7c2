package nstool

import (
	"nstoolkit/internal/formats"
)

// OutcomeKind tags the result of one processor attempt.
type OutcomeKind int

const (
	// OutcomeSuccess means the processor decoded the source with the candidate type.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeTypeMismatch means the candidate type does not fit the source.
	OutcomeTypeMismatch
	// OutcomeFailure is any other error; discovery must stop.
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTypeMismatch:
		return "type_mismatch"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one attempt.
type Outcome struct {
	Kind       OutcomeKind
	Tag        formats.Tag
	Parameters []string
	// Payload is the processor's JSON object, set on success.
	Payload  []byte
	Warnings []string
	// Message describes a mismatch or failure.
	Message string
}
