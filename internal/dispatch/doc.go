// Package dispatch drives describe and extract requests through the nstool
// processor.
//
// A request is validated, turned into an ordered list of candidate types, and
// tried one candidate at a time. Wrong-type attempts are folded into warnings
// and the next candidate is tried; any other failure stops the run. The
// terminal state is merged with the processor payload into a Result, which is
// what every public operation returns. No error crosses the Service boundary.
package dispatch
