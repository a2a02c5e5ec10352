package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"osmworld/internal/config"
	"osmworld/internal/ledger"
	"osmworld/internal/runlock"
	"osmworld/internal/services"
	"osmworld/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedTools(), testsupport.WithMerge(true))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestRootWithoutArgumentsPrintsUsage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, _, err := runCLI(t, nil, "")
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	requireContains(t, out, "Usage:")
	requireContains(t, out, "osmworld")
}

func TestRootWithConfigRunsPipeline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"-I", env.configPath}, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "completed")
	if got := testsupport.CountCalls(t, "osm2hydro"); got != 4 {
		t.Fatalf("osm2hydro calls = %d, want 4", got)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.FinalOutputDir, "lu_water.tif.gz")); err != nil {
		t.Fatalf("merged output missing: %v", err)
	}

	testsupport.ResetCalls(t)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if calls := testsupport.Calls(t); len(calls) != 0 {
		t.Fatalf("rerun launched tools: %v", calls)
	}
}

func TestRunStopsAfterStage(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"run", "--stage", "partition"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	if testsupport.CountCalls(t, "splitter") != 2 {
		t.Fatal("partition should have run for both regions")
	}
	if testsupport.CountCalls(t, "osm2hydro") != 0 {
		t.Fatal("convert must not run")
	}

	_, _, err := runCLI(t, []string{"run", "--stage", "render"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunRefusesConcurrentInstance(t *testing.T) {
	env := setupCLITestEnv(t)
	lock, err := runlock.Acquire(env.cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
	if len(testsupport.Calls(t)) != 0 {
		t.Fatal("no tool may run while the lock is held")
	}
}

func TestRunFailureIsRecorded(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.FailingStub(t, env.cfg.Tools.OSM2Hydro[0], 4)

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	requireContains(t, err.Error(), "exited with code 4")

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, ledger.StatusFailed)
	requireContains(t, out, "external_command_failed")
}

func TestHistoryListsRunsAndJobs(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	store := testsupport.MustOpenLedger(t, env.cfg)
	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, runs[0].ID)
	requireContains(t, out, ledger.StatusSucceeded)

	out, _, err = runCLI(t, []string{"history", "--run", runs[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, out, "extract")
	requireContains(t, out, "00000004")
	requireContains(t, out, "gdal_merge")

	_, _, err = runCLI(t, []string{"history", "--run", "missing"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown run, got %v", err)
	}
}

func TestPlanCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Extract: 2 job(s)")
	requireContains(t, out, "Partition: 2 job(s)")
	requireContains(t, out, "note: ")
	if len(testsupport.Calls(t)) != 0 {
		t.Fatal("plan must not launch tools")
	}

	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	out, _, err = runCLI(t, []string{"plan"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "0 job(s) pending")
}

func TestTilesCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	index := filepath.Join(t.TempDir(), "areas.list")
	testsupport.WriteIndex(t, index, 7, 8)

	out, _, err := runCLI(t, []string{"tiles", index}, "")
	if err != nil {
		t.Fatalf("tiles: %v", err)
	}
	requireContains(t, out, "00000007")
	requireContains(t, out, "00000008")
	requireContains(t, out, "next map id 9")

	_, _, err = runCLI(t, []string{"tiles", filepath.Join(t.TempDir(), "missing.list")}, "")
	if !errors.Is(err, services.ErrIndexUnreadable) {
		t.Fatalf("expected ErrIndexUnreadable, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "All checks passed")

	if err := os.Remove(env.cfg.Tools.SplitterJar); err != nil {
		t.Fatal(err)
	}
	out, _, err = runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected failure when the splitter jar is missing")
	}
	requireContains(t, out, "FAIL")
	requireContains(t, err.Error(), "Splitter jar")
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Regions: 2")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "osm_file")
	requireContains(t, out, env.cfg.Paths.OSMFile)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	_, _, err = runCLI(t, []string{"config", "validate"}, filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
