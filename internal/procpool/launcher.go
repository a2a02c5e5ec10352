package procpool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"osmworld/internal/logging"
)

// Process is a launched job. ExitCode is only meaningful once Done is closed.
type Process interface {
	PID() int
	Done() <-chan struct{}
	ExitCode() int
}

// Launcher starts processes for jobs.
type Launcher interface {
	Launch(ctx context.Context, job Job) (Process, error)
}

// ExecLauncher starts jobs as OS processes. Output lines are forwarded to the
// logger at debug level.
type ExecLauncher struct {
	Logger *slog.Logger
}

// Launch starts the job without binding it to ctx: cancelling a run stops new
// launches but never kills a running tool.
func (l ExecLauncher) Launch(ctx context.Context, job Job) (Process, error) {
	cmd := exec.Command(job.Program, job.Args...) //nolint:gosec
	cmd.Dir = job.Dir
	if len(job.Env) > 0 {
		cmd.Env = append(os.Environ(), job.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", job.Program, err)
	}

	logger := logging.WithContext(ctx, l.Logger).With(logging.String("job", job.label()))
	proc := &execProcess{pid: cmd.Process.Pid, done: make(chan struct{})}

	var wg sync.WaitGroup
	scan := func(r io.Reader, stream string) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			logger.Debug("tool output", logging.String("stream", stream), logging.String("line", scanner.Text()))
		}
	}
	wg.Add(2)
	go scan(stdout, "stdout")
	go scan(stderr, "stderr")

	go func() {
		wg.Wait()
		proc.code = exitCode(cmd.Wait())
		close(proc.done)
	}()
	return proc, nil
}

type execProcess struct {
	pid  int
	code int
	done chan struct{}
}

func (p *execProcess) PID() int { return p.pid }

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) ExitCode() int {
	<-p.done
	return p.code
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code != 0 {
			return code
		}
	}
	return -1
}
