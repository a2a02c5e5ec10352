// Package gdalmerge builds gdal_merge.py jobs that mosaic per-tile rasters
// into one world raster.
package gdalmerge

import (
	"errors"
	"strconv"
	"strings"

	"osmworld/internal/procpool"
)

// Stage is the pipeline stage these jobs belong to.
const Stage = "merge"

// Options configures the merge invocation.
type Options struct {
	Argv            []string
	NoData          int
	CreationOptions []string
	Env             []string
}

// Client maps configuration onto gdal_merge.py command lines.
type Client struct {
	opts Options
}

// New validates opts and constructs a client.
func New(opts Options) (*Client, error) {
	if len(opts.Argv) == 0 || strings.TrimSpace(opts.Argv[0]) == "" {
		return nil, errors.New("gdal_merge command required")
	}
	opts.Argv = append([]string(nil), opts.Argv...)
	opts.CreationOptions = append([]string(nil), opts.CreationOptions...)
	opts.Env = append([]string(nil), opts.Env...)
	return &Client{opts: opts}, nil
}

// MergeJob merges the files listed in listFile into output.
func (c *Client) MergeJob(pattern, output, listFile string) procpool.Job {
	args := append([]string(nil), c.opts.Argv[1:]...)
	for _, opt := range c.opts.CreationOptions {
		args = append(args, "-co", opt)
	}
	args = append(args,
		"-n", strconv.Itoa(c.opts.NoData),
		"-o", output,
		"--optfile", listFile,
	)
	return procpool.Job{
		Name:    "merge " + pattern,
		Stage:   Stage,
		Unit:    pattern,
		Program: c.opts.Argv[0],
		Args:    args,
		Env:     append([]string(nil), c.opts.Env...),
		Key:     output,
	}
}
