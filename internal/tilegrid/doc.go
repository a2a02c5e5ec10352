// Package tilegrid decodes splitter tile index files (areas.list) into
// geographic tile records.
//
// The splitter stores tile bounds in its internal fixed-point grid where 2^24
// units span 360 degrees. Decoding converts each bound to decimal degrees and
// pads the box by half of the overlap margin so neighbouring tiles overlap
// slightly once rasterised. The maximum identifier in an index determines the
// first identifier of the next splitter run, keeping tile names unique across
// regions.
package tilegrid
