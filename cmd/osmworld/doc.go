// Package main hosts the osmworld CLI entrypoint and command graph.
//
// The Cobra command tree loads the TOML configuration, takes the run lock on
// the output tree, opens the run ledger, and hands control to the pipeline
// sequencer. The remaining commands are read-only views over the same state:
// pending work, tile indexes, preflight results, and recorded runs.
package main
