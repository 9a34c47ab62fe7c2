// Package main hosts the nstoolkit CLI entrypoint and command graph.
//
// The Cobra command tree maps describe and extract onto the dispatch service,
// lists the supported container types, reads the run history, checks that the
// processor binary is installed, scaffolds configuration, and serves the same
// operations over MCP. Configuration is loaded once per invocation and shared
// by every subcommand through commandContext.
//
// Keep this package thin: behavior belongs in internal packages, and commands
// here only translate flags into requests and results into terminal output.
package main
