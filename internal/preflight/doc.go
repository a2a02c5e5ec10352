// Package preflight verifies that a configured run can start: directories are
// writable, inputs are readable, and the external programs are installed.
//
// Results are reported individually so the CLI can render every failing check
// at once instead of stopping at the first problem.
package preflight
