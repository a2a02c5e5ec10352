// Package osmconvert builds the jobs that cut one region out of the planet
// file.
package osmconvert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"osmworld/internal/procpool"
)

// Stage is the pipeline stage these jobs belong to.
const Stage = "extract"

// DefaultHashMemory is the --hash-memory value in megabytes.
const DefaultHashMemory = 1000

// Client maps configuration onto osmconvert command lines.
type Client struct {
	argv       []string
	hashMemory int
	env        []string
}

// New constructs a client. argv is the program followed by fixed leading
// arguments.
func New(argv []string, hashMemory int, env []string) (*Client, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("osmconvert command required")
	}
	if hashMemory <= 0 {
		hashMemory = DefaultHashMemory
	}
	return &Client{
		argv:       append([]string(nil), argv...),
		hashMemory: hashMemory,
		env:        append([]string(nil), env...),
	}, nil
}

// CutOutPath returns <cutDir>/<boundary>.pbf.
func CutOutPath(cutDir, boundary string) string {
	return filepath.Join(cutDir, boundary+".pbf")
}

// ExtractJob clips input to the polygon in boundary and writes output as PBF.
// The job is keyed on output.
func (c *Client) ExtractJob(input, output, boundary string) procpool.Job {
	args := append([]string(nil), c.argv[1:]...)
	args = append(args,
		input,
		"-o="+output,
		"-B="+boundary,
		"-v",
		"--out-pbf",
		fmt.Sprintf("--hash-memory=%d", c.hashMemory),
		"--drop-broken-refs",
		"--drop-version",
		"--drop-relations",
		"--complex-ways",
		"--complete-ways",
		"--drop-author",
	)
	return procpool.Job{
		Name:    "extract " + boundary,
		Stage:   Stage,
		Unit:    boundary,
		Program: c.argv[0],
		Args:    args,
		Env:     append([]string(nil), c.env...),
		Key:     output,
	}
}
