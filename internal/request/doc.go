// Package request normalizes and validates caller options for describe and
// extract operations before any processor invocation happens.
//
// Validation runs once, in a fixed order, and stops at the first problem:
// declared type, source presence, source readability, then (for extraction)
// the output directory and file selector. Filesystem checks go through the
// Access interface so callers and tests can substitute their own.
package request
