// Package merge combines the per-tile rasters of every region into one world
// raster per product pattern and optionally compresses the result.
//
// A pattern is skipped once its merged output or the compressed output
// exists. The list of inputs handed to gdal_merge.py is written next to the
// output and removed after a successful merge; a failed merge leaves it in
// place for inspection.
package merge
