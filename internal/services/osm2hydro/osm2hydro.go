// Package osm2hydro builds the per-tile conversion jobs and the optional
// cleanup of intermediate shapes.
package osm2hydro

import (
	"errors"
	"path/filepath"
	"strings"

	"osmworld/internal/procpool"
	"osmworld/internal/tilegrid"
)

// Stage is the pipeline stage these jobs belong to.
const Stage = "convert"

// MarkerName is the log file osm2hydro writes into a finished tile directory.
// The spelling matches what the tool writes.
const MarkerName = "OMS2Hydro.log"

// ShapesDirName holds the intermediate vector shapes of a tile.
const ShapesDirName = "osmshapes"

// Options configures conversion and cleanup commands.
type Options struct {
	Argv       []string
	ConfigFile string
	PassExtent bool
	Cleanup    []string
	Env        []string
}

// Client maps configuration onto osm2hydro command lines.
type Client struct {
	opts Options
}

// New validates opts and constructs a client.
func New(opts Options) (*Client, error) {
	if len(opts.Argv) == 0 || strings.TrimSpace(opts.Argv[0]) == "" {
		return nil, errors.New("osm2hydro command required")
	}
	if strings.TrimSpace(opts.ConfigFile) == "" {
		return nil, errors.New("osm2hydro config file required")
	}
	opts.Argv = append([]string(nil), opts.Argv...)
	opts.Cleanup = append([]string(nil), opts.Cleanup...)
	opts.Env = append([]string(nil), opts.Env...)
	return &Client{opts: opts}, nil
}

// MarkerPath returns the completion marker inside tileDir.
func MarkerPath(tileDir string) string {
	return filepath.Join(tileDir, MarkerName)
}

// ConvertJob builds the conversion of one tile. source is the tile PBF and
// outputDir the tile's result directory; the job is keyed on the marker.
func (c *Client) ConvertJob(region string, tile tilegrid.Tile, source, outputDir string) procpool.Job {
	args := append([]string(nil), c.opts.Argv[1:]...)
	args = append(args, "-c", c.opts.ConfigFile, "-O", source, "-o", outputDir)
	if c.opts.PassExtent {
		args = append(args, "-E", tile.Extent())
	}
	return procpool.Job{
		Name:    "convert " + region + "/" + tile.Name,
		Stage:   Stage,
		Unit:    tile.Name,
		Tile:    tile.Name,
		Program: c.opts.Argv[0],
		Args:    args,
		Env:     append([]string(nil), c.opts.Env...),
		Key:     MarkerPath(outputDir),
	}
}

// CleanupJob removes the intermediate shapes of a converted tile. It has no
// key and always runs.
func (c *Client) CleanupJob(region, tileName, outputDir string) (procpool.Job, error) {
	if len(c.opts.Cleanup) == 0 {
		return procpool.Job{}, errors.New("cleanup command required")
	}
	args := append([]string(nil), c.opts.Cleanup[1:]...)
	args = append(args, filepath.Join(outputDir, ShapesDirName))
	return procpool.Job{
		Name:    "cleanup " + region + "/" + tileName,
		Stage:   Stage,
		Unit:    tileName,
		Tile:    tileName,
		Program: c.opts.Cleanup[0],
		Args:    args,
	}, nil
}
