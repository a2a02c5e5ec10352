package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"osmworld/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if r := CheckDirectoryAccess("dir", dir); !r.Passed {
		t.Fatalf("expected existing dir to pass: %+v", r)
	}
	if r := CheckDirectoryAccess("dir", filepath.Join(dir, "a", "b")); !r.Passed || !strings.Contains(r.Detail, "will be created") {
		t.Fatalf("expected creatable dir to pass: %+v", r)
	}
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDirectoryAccess("dir", file); r.Passed {
		t.Fatalf("expected file to fail: %+v", r)
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "area_0.poly")
	if err := os.WriteFile(file, []byte("poly"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFileReadable("poly", file); !r.Passed {
		t.Fatalf("expected readable file to pass: %+v", r)
	}
	if r := CheckFileReadable("poly", filepath.Join(dir, "missing.poly")); r.Passed {
		t.Fatalf("expected missing file to fail: %+v", r)
	}
	if r := CheckFileReadable("poly", dir); r.Passed {
		t.Fatalf("expected directory to fail: %+v", r)
	}
	if r := CheckFileReadable("poly", ""); r.Passed {
		t.Fatal("expected blank path to fail")
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(dir, "world")
	cfg.Paths.OSMCutDir = dir
	cfg.Paths.TmpDir = dir
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Pipeline.Extract = false
	cfg.Pipeline.Boundaries = []string{filepath.Join(dir, "area_0.poly")}
	cfg.Tools.Java = "osmworld-missing-java"
	cfg.Tools.OSM2Hydro = []string{"osmworld-missing-osm2hydro"}

	results := RunAll(context.Background(), &cfg)
	failed := Failed(results)

	names := make(map[string]bool)
	for _, r := range failed {
		names[r.Name] = true
	}
	for _, want := range []string{"Tool Java", "Tool osm2hydro", "Boundary " + cfg.Pipeline.Boundaries[0]} {
		if !names[want] {
			t.Fatalf("expected %q among failures: %+v", want, failed)
		}
	}
	if names["Output directory"] || names["OSM planet file"] {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
