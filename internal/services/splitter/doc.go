// Package splitter builds the jobs that partition a region cut-out into
// tiles with the Java splitter.
//
// A fresh run lets the splitter choose tile boundaries (--overlap) and write
// areas.list; a resumed run replays an existing areas.list (--split-file) so
// tile identifiers stay stable across restarts. Both forms pass --mapid so
// identifiers continue from the previous region.
package splitter
