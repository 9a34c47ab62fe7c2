// Package nstool wraps the nstool command-line processor.
//
// Each Invoke call runs the binary once with a concrete --type hint, captures
// its JSON output, and classifies the attempt as a success, a wrong-type
// guess, or a genuine failure. Classification happens here, at the process
// boundary, so the dispatcher only ever switches on Outcome.Kind.
package nstool
