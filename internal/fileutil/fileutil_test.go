package fileutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := Exists(present); err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}
	if ok, err := Exists(filepath.Join(dir, "absent")); err != nil || ok {
		t.Fatalf("Exists(absent) = %v, %v", ok, err)
	}
	if ok, err := AnyExists(filepath.Join(dir, "absent"), present); err != nil || !ok {
		t.Fatalf("AnyExists = %v, %v", ok, err)
	}
}

func TestWriteLinesReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flist.txt")
	if err := WriteLines(path, []string{"old"}); err != nil {
		t.Fatal(err)
	}
	if err := WriteLines(path, []string{"a/lu_water.tif", "b/lu_water.tif"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a/lu_water.tif\nb/lu_water.tif" {
		t.Fatalf("unexpected content %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestFindMatches(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"00000002/lu_water.tif",
		"00000001/lu_water.tif",
		"00000001/lu_roads.tif",
		"00000001/osmshapes/lu_water.tif",
	} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FindMatches(root, "lu_water.tif")
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	want := []string{
		filepath.Join(root, "00000001/lu_water.tif"),
		filepath.Join(root, "00000001/osmshapes/lu_water.tif"),
		filepath.Join(root, "00000002/lu_water.tif"),
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	if got, err := FindMatches(filepath.Join(root, "missing"), "*.tif"); err != nil || len(got) != 0 {
		t.Fatalf("missing root: %v, %v", got, err)
	}
	if _, err := FindMatches(root, "["); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}
