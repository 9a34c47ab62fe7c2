package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"nstoolkit/internal/formats"
	"nstoolkit/internal/logging"
	"nstoolkit/internal/request"
	"nstoolkit/internal/services/nstool"
)

// State is the dispatcher's position in a run.
type State int

const (
	StateTrying State = iota
	StateSucceeded
	StateAborted
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateTrying:
		return "trying"
	case StateSucceeded:
		return "succeeded"
	case StateAborted:
		return "aborted"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal is the final state of a dispatch run.
type Terminal struct {
	State      State
	Candidates []formats.Tag
	// Attempts counts processor invocations.
	Attempts int
	// Warnings holds one "[candidate] message" entry per mismatch, in attempt order.
	Warnings []string
	// Last is the outcome of the final attempt. It carries the payload when
	// State is StateSucceeded and the failure message when StateAborted.
	Last nstool.Outcome
}

// Detected returns the candidate that succeeded.
func (t Terminal) Detected() (formats.Tag, bool) {
	if t.State != StateSucceeded {
		return "", false
	}
	return t.Last.Tag, true
}

// Dispatcher tries candidates in order until one succeeds or one fails hard.
type Dispatcher struct {
	invoker nstool.Invoker
	logger  *slog.Logger
}

// NewDispatcher wires a dispatcher to invoker.
func NewDispatcher(invoker nstool.Invoker, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		invoker: invoker,
		logger:  logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Run walks candidates sequentially. Only a type mismatch advances to the next
// candidate; success and failure are both terminal.
func (d *Dispatcher) Run(ctx context.Context, opts request.Options, candidates []formats.Tag) Terminal {
	term := Terminal{
		State:      StateTrying,
		Candidates: append([]formats.Tag(nil), candidates...),
		Warnings:   []string{},
	}

	for _, tag := range candidates {
		if err := ctx.Err(); err != nil {
			term.State = StateAborted
			term.Last = nstool.Outcome{Kind: nstool.OutcomeFailure, Tag: tag, Message: fmt.Sprintf("dispatch stopped before %s: %v", tag, err)}
			break
		}

		outcome := d.invoker.Invoke(ctx, opts, tag)
		term.Attempts++
		term.Last = outcome

		d.logger.Debug("candidate attempted", logging.Args(
			logging.String(logging.FieldCandidate, string(tag)),
			logging.Int(logging.FieldAttempt, term.Attempts),
			logging.String(logging.FieldOutcome, outcome.Kind.String()),
		)...)

		switch outcome.Kind {
		case nstool.OutcomeSuccess:
			term.State = StateSucceeded
		case nstool.OutcomeTypeMismatch:
			term.Warnings = append(term.Warnings, mismatchWarning(tag, outcome.Message))
			continue
		default:
			term.State = StateAborted
		}
		break
	}

	if term.State == StateTrying {
		term.State = StateExhausted
	}
	return term
}

func mismatchWarning(tag formats.Tag, message string) string {
	return fmt.Sprintf("[%s] %s", tag, message)
}
