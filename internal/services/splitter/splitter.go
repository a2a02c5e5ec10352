package splitter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"osmworld/internal/procpool"
	"osmworld/internal/tilegrid"
)

// Stage is the pipeline stage these jobs belong to.
const Stage = "partition"

const (
	description = "OSM World splitter results"
	kmlFile     = "areas.kml"
)

// Options configures the splitter invocation.
type Options struct {
	Java    string
	Heap    string
	Jar     string
	Overlap int
	Env     []string
}

// Client maps configuration onto splitter command lines.
type Client struct {
	opts Options
}

// New validates opts and constructs a client.
func New(opts Options) (*Client, error) {
	opts.Java = strings.TrimSpace(opts.Java)
	opts.Jar = strings.TrimSpace(opts.Jar)
	if opts.Java == "" {
		return nil, errors.New("java binary required")
	}
	if opts.Jar == "" {
		return nil, errors.New("splitter jar required")
	}
	if opts.Overlap <= 0 {
		return nil, fmt.Errorf("splitter overlap must be positive (got %d)", opts.Overlap)
	}
	opts.Env = append([]string(nil), opts.Env...)
	return &Client{opts: opts}, nil
}

// Request describes one region partition.
type Request struct {
	Region    string
	Source    string
	OutputDir string
	Boundary  string
	MapID     int
	// SplitFile, when set, replays a previous areas.list instead of
	// computing new tile boundaries.
	SplitFile string
}

// IndexPath returns the areas.list location inside outputDir.
func IndexPath(outputDir string) string {
	return filepath.Join(outputDir, tilegrid.IndexFileName)
}

// PartitionJob builds the splitter job for req. A fresh partition is keyed on
// the index; a replay is keyed on the first tile's source file, which must be
// supplied as key.
func (c *Client) PartitionJob(req Request, key string) procpool.Job {
	args := make([]string, 0, 12)
	if c.opts.Heap != "" {
		args = append(args, "-Xmx"+c.opts.Heap)
	}
	args = append(args, "-jar", c.opts.Jar)
	if req.SplitFile != "" {
		args = append(args, "--split-file="+req.SplitFile)
	} else {
		args = append(args, fmt.Sprintf("--overlap=%d", c.opts.Overlap))
	}
	args = append(args,
		"--output-dir="+req.OutputDir,
		"--description="+description,
		"--keep-complete=true",
		fmt.Sprintf("--mapid=%d", req.MapID),
		"--output=pbf",
		"--polygon-file="+req.Boundary,
		"--write-kml="+kmlFile,
		req.Source,
	)
	if key == "" {
		key = IndexPath(req.OutputDir)
	}
	name := "partition " + req.Region
	if req.SplitFile != "" {
		name = "repartition " + req.Region
	}
	return procpool.Job{
		Name:    name,
		Stage:   Stage,
		Unit:    req.Region,
		Program: c.opts.Java,
		Args:    args,
		Env:     append([]string(nil), c.opts.Env...),
		Key:     key,
	}
}
