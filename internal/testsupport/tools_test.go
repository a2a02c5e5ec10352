package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCallsEmptyAfterReset(t *testing.T) {
	t.Setenv(CallLogEnv, filepath.Join(t.TempDir(), "calls.log"))
	if calls := Calls(t); calls != nil {
		t.Fatalf("missing log: got %v", calls)
	}

	if err := os.WriteFile(os.Getenv(CallLogEnv), []byte("osmconvert a\nsplitter b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := CountCalls(t, "splitter"); got != 1 {
		t.Fatalf("splitter calls = %d, want 1", got)
	}

	ResetCalls(t)
	if calls := Calls(t); len(calls) != 0 {
		t.Fatalf("after reset: got %q", calls)
	}
}
