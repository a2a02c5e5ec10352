package procpool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"osmworld/internal/services"
)

type fakeProcess struct {
	pid  int
	code int
	done chan struct{}
}

func (p *fakeProcess) PID() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) ExitCode() int         { <-p.done; return p.code }

// fakeLauncher simulates processes that run for a fixed duration and tracks
// how many are alive at once.
type fakeLauncher struct {
	mu       sync.Mutex
	duration map[string]time.Duration
	codes    map[string]int
	alive    int
	peak     int
	events   []string
	tiles    []string
	started  []string
	finished []string
	nextPID  int
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{duration: map[string]time.Duration{}, codes: map[string]int{}}
}

func (f *fakeLauncher) Launch(ctx context.Context, job Job) (Process, error) {
	f.mu.Lock()
	if tile, ok := services.TileFromContext(ctx); ok {
		f.tiles = append(f.tiles, tile)
	}
	f.nextPID++
	f.alive++
	if f.alive > f.peak {
		f.peak = f.alive
	}
	f.events = append(f.events, "start "+job.Name)
	f.started = append(f.started, job.Name)
	proc := &fakeProcess{pid: f.nextPID, code: f.codes[job.Name], done: make(chan struct{})}
	d, ok := f.duration[job.Name]
	if !ok {
		d = 5 * time.Millisecond
	}
	f.mu.Unlock()

	go func() {
		time.Sleep(d)
		f.mu.Lock()
		f.alive--
		f.events = append(f.events, "end "+job.Name)
		f.finished = append(f.finished, job.Name)
		f.mu.Unlock()
		close(proc.done)
	}()
	return proc, nil
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *recordingRecorder) Record(_ context.Context, rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func jobsNamed(n int) []Job {
	jobs := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, Job{Name: fmt.Sprintf("job-%d", i), Stage: "test", Program: "tool", Args: []string{fmt.Sprint(i)}})
	}
	return jobs
}

func fastOptions(launcher Launcher, max int) Options {
	return Options{
		MaxConcurrency: max,
		FillInterval:   time.Millisecond,
		DrainInterval:  time.Millisecond,
		Launcher:       launcher,
	}
}

func TestRunNeverExceedsMaxConcurrency(t *testing.T) {
	for _, max := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			launcher := newFakeLauncher()
			pool := New(fastOptions(launcher, max))
			if err := pool.Run(context.Background(), jobsNamed(10)); err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if launcher.peak > max {
				t.Fatalf("observed %d concurrent processes, limit %d", launcher.peak, max)
			}
			if len(launcher.finished) != 10 {
				t.Fatalf("expected 10 finished jobs, got %d", len(launcher.finished))
			}
		})
	}
}

func TestRunSingleSlotIsFIFO(t *testing.T) {
	launcher := newFakeLauncher()
	pool := New(fastOptions(launcher, 1))
	if err := pool.Run(context.Background(), jobsNamed(4)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []string{
		"start job-0", "end job-0",
		"start job-1", "end job-1",
		"start job-2", "end job-2",
		"start job-3", "end job-3",
	}
	if strings.Join(launcher.events, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected event order:\n got %v\nwant %v", launcher.events, want)
	}
}

func TestRunAbortsRemainingJobsOnFailure(t *testing.T) {
	launcher := newFakeLauncher()
	launcher.duration["job-0"] = 40 * time.Millisecond
	launcher.duration["job-1"] = time.Millisecond
	launcher.codes["job-1"] = 3
	recorder := &recordingRecorder{}
	opts := fastOptions(launcher, 2)
	opts.Recorder = recorder
	pool := New(opts)

	err := pool.Run(context.Background(), jobsNamed(6))
	if err == nil {
		t.Fatal("expected batch failure")
	}
	cmdErr, ok := AsCommandError(err)
	if !ok {
		t.Fatalf("expected CommandError, got %T: %v", err, err)
	}
	if cmdErr.Job.Name != "job-1" || cmdErr.ExitCode != 3 {
		t.Fatalf("unexpected failure report: job=%s code=%d", cmdErr.Job.Name, cmdErr.ExitCode)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "tool 1") || !strings.Contains(err.Error(), "code 3") {
		t.Fatalf("error should name command and exit code: %v", err)
	}
	if len(launcher.started) != 2 {
		t.Fatalf("expected only 2 launches, got %v", launcher.started)
	}
	// job-0 was running when job-1 failed; it must be drained, not abandoned.
	if len(launcher.finished) != 2 {
		t.Fatalf("expected running job to be drained, finished=%v", launcher.finished)
	}
	if len(recorder.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recorder.records))
	}
}

func TestRunReportsFirstFailureOnly(t *testing.T) {
	launcher := newFakeLauncher()
	launcher.duration["job-0"] = time.Millisecond
	launcher.codes["job-0"] = 1
	launcher.duration["job-1"] = 30 * time.Millisecond
	launcher.codes["job-1"] = 2
	pool := New(fastOptions(launcher, 2))

	err := pool.Run(context.Background(), jobsNamed(3))
	cmdErr, ok := AsCommandError(err)
	if !ok {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.Job.Name != "job-0" {
		t.Fatalf("expected first failure to be reported, got %s", cmdErr.Job.Name)
	}
}

func TestRunStopsLaunchingWhenContextCancelled(t *testing.T) {
	launcher := newFakeLauncher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := New(fastOptions(launcher, 2))
	err := pool.Run(ctx, jobsNamed(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(launcher.started) != 0 {
		t.Fatalf("expected no launches, got %v", launcher.started)
	}
}

func TestRunRejectsInvalidJobBeforeLaunching(t *testing.T) {
	launcher := newFakeLauncher()
	pool := New(fastOptions(launcher, 2))
	jobs := jobsNamed(2)
	jobs = append(jobs, Job{Name: "broken"})
	err := pool.Run(context.Background(), jobs)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(launcher.started) != 0 {
		t.Fatalf("expected nothing launched, got %v", launcher.started)
	}
}

func TestRunTagsLaunchContextWithTile(t *testing.T) {
	launcher := newFakeLauncher()
	pool := New(fastOptions(launcher, 2))
	jobs := jobsNamed(3)
	jobs[0].Tile = "00000001"
	jobs[2].Tile = "00000003"
	if err := pool.Run(context.Background(), jobs); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.Join(launcher.tiles, ",") != "00000001,00000003" {
		t.Fatalf("unexpected tile tags %v", launcher.tiles)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	if err := New(Options{}).Run(context.Background(), nil); err != nil {
		t.Fatalf("empty batch returned error: %v", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	pool := New(Options{MaxConcurrency: -2})
	if pool.MaxConcurrency() != DefaultMaxConcurrency {
		t.Fatalf("expected default concurrency, got %d", pool.MaxConcurrency())
	}
}

func TestExecLauncherRunsProcesses(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	jobs := []Job{
		{Name: "write", Program: "/bin/sh", Args: []string{"-c", `printf '%s' "$OSMWORLD_TEST" > "$1"`, "sh", out}, Env: []string{"OSMWORLD_TEST=hello"}},
		{Name: "noop", Program: "/bin/sh", Args: []string{"-c", "exit 0"}},
	}
	pool := New(Options{MaxConcurrency: 2, FillInterval: 5 * time.Millisecond, DrainInterval: 5 * time.Millisecond})
	if err := pool.Run(context.Background(), jobs); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected env to reach the process, got %q", data)
	}
}

func TestExecLauncherReportsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	pool := New(Options{MaxConcurrency: 1, FillInterval: 5 * time.Millisecond, DrainInterval: 5 * time.Millisecond})
	err := pool.Run(context.Background(), []Job{{Name: "fail", Program: "/bin/sh", Args: []string{"-c", "exit 7"}}})
	cmdErr, ok := AsCommandError(err)
	if !ok {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", cmdErr.ExitCode)
	}
}

func TestExecLauncherMissingBinary(t *testing.T) {
	recorder := &recordingRecorder{}
	pool := New(Options{MaxConcurrency: 1, FillInterval: time.Millisecond, DrainInterval: time.Millisecond, Recorder: recorder})
	err := pool.Run(context.Background(), []Job{{Name: "ghost", Program: "clearly-not-present-binary"}})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(recorder.records) != 1 || recorder.records[0].LaunchErr == nil {
		t.Fatalf("expected launch failure to be recorded, got %+v", recorder.records)
	}
}

func TestCommandLineQuotesAmbiguousArgs(t *testing.T) {
	job := Job{Program: "gdal_merge.py", Args: []string{"-o", "out dir/x.tif", ""}}
	if got := job.CommandLine(); got != `gdal_merge.py -o "out dir/x.tif" ""` {
		t.Fatalf("CommandLine() = %q", got)
	}
}
