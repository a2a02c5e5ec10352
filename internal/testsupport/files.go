package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"osmworld/internal/tilegrid"
)

// Touch creates an empty file at path, including parent directories.
func Touch(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

// WriteIndex writes an areas.list holding one small square tile per id.
func WriteIndex(t testing.TB, path string, ids ...int) {
	t.Helper()
	areas := make([]tilegrid.Area, 0, len(ids))
	for i, id := range ids {
		y := int64(i) * 2048
		areas = append(areas, tilegrid.Area{ID: id, Y1: y, X1: 0, Y2: y + 2048, X2: 2048})
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := tilegrid.Write(f, areas, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)); err != nil {
		t.Fatalf("write index: %v", err)
	}
}
