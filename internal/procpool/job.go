package procpool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"osmworld/internal/services"
)

// Job is one external command invocation. Key names the output path whose
// existence marks the job as complete; it is informational for the pool and
// empty for jobs that always run. Tile is set for per-tile jobs and tags the
// launch context.
type Job struct {
	Name    string
	Stage   string
	Unit    string
	Tile    string
	Program string
	Args    []string
	Dir     string
	Env     []string
	Key     string
}

// Validate rejects jobs that cannot be launched.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Program) == "" {
		return services.Wrap(services.ErrValidation, j.Stage, "validate job", fmt.Sprintf("job %q has no program", j.Name), nil)
	}
	for i, arg := range j.Args {
		if strings.ContainsRune(arg, 0) {
			return services.Wrap(services.ErrValidation, j.Stage, "validate job", fmt.Sprintf("job %q argument %d contains a NUL byte", j.Name, i), nil)
		}
	}
	return nil
}

// CommandLine renders the invocation for logs and error reports. Arguments
// that would be ambiguous when pasted into a shell are quoted.
func (j Job) CommandLine() string {
	parts := make([]string, 0, len(j.Args)+1)
	parts = append(parts, quoteArg(j.Program))
	for _, arg := range j.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func (j Job) label() string {
	if j.Name != "" {
		return j.Name
	}
	return j.Program
}

func quoteArg(arg string) string {
	if arg == "" {
		return `""`
	}
	if strings.ContainsAny(arg, " \t\n\"'\\$`") {
		return strconv.Quote(arg)
	}
	return arg
}

// CommandError reports the job that aborted a batch.
type CommandError struct {
	Job      Job
	ExitCode int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s exited with code %d: %s", e.Job.label(), e.ExitCode, e.Job.CommandLine())
}

// Unwrap lets errors.Is match services.ErrExternalTool.
func (e *CommandError) Unwrap() error {
	return services.ErrExternalTool
}

// AsCommandError extracts the failing job from err when present.
func AsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}
