// Package formats owns the closed set of container format tags understood by
// the nstool processor and the ordering rules used when the caller does not
// declare one.
//
// The Table type is built once at process start (defaults plus any configured
// extension hints) and never mutated afterwards, so it can be shared freely
// between concurrent describe/extract calls.
package formats
