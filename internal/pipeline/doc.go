// Package pipeline sequences the extract, partition, convert, and merge
// stages over the configured regions.
//
// Every decision about what to run is derived from files on disk: cut-outs,
// tile indexes, tile sources, conversion markers, and merged outputs. A run
// that stops part way is resumed by starting it again; finished work is never
// repeated. Stages are strictly ordered and each stage completes for every
// region before the next begins.
package pipeline
