// Package pigz builds compression jobs for merged rasters.
package pigz

import (
	"errors"
	"strconv"
	"strings"

	"osmworld/internal/procpool"
)

// Stage is the pipeline stage these jobs belong to.
const Stage = "merge"

// Suffix is appended to a compressed file's name.
const Suffix = ".gz"

// Client maps configuration onto pigz command lines.
type Client struct {
	binary  string
	threads int
	env     []string
}

// New constructs a client.
func New(binary string, threads int, env []string) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("pigz binary required")
	}
	if threads <= 0 {
		threads = 1
	}
	return &Client{binary: binary, threads: threads, env: append([]string(nil), env...)}, nil
}

// CompressedPath returns the file pigz replaces path with.
func CompressedPath(path string) string {
	return path + Suffix
}

// CompressJob compresses path in place, keyed on the compressed result.
func (c *Client) CompressJob(unit, path string) procpool.Job {
	return procpool.Job{
		Name:    "compress " + unit,
		Stage:   Stage,
		Unit:    unit,
		Program: c.binary,
		Args:    []string{"-v", "-p", strconv.Itoa(c.threads), path},
		Env:     append([]string(nil), c.env...),
		Key:     CompressedPath(path),
	}
}
