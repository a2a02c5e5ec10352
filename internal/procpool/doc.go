// Package procpool launches and supervises batches of external commands with
// bounded concurrency.
//
// A batch is an ordered list of Jobs. Pool.Run starts them in submission order,
// never keeping more than MaxConcurrency processes alive, and polls the running
// set for exits. The first non-zero exit stops further launches; processes that
// are already running are drained rather than killed so no tool is interrupted
// while writing an output that a later run would treat as complete.
package procpool
