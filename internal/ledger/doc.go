// Package ledger keeps an SQLite history of pipeline runs and the external
// commands each run launched.
//
// The history is for operators (`osmworld history`) and post-mortems. The
// pipeline never reads it back when deciding what to skip; marker files on
// disk remain the only resume mechanism.
package ledger
