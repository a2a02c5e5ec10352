package services_test

import (
	"errors"
	"strings"
	"testing"

	"osmworld/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIndexUnreadable, "convert", "read index", "areas.list", base)
	if !errors.Is(err, services.ErrIndexUnreadable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"convert", "read index", "areas.list"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrConfiguration, "config", "validate", "osm_file missing", nil), "configuration_missing"},
		{services.Wrap(services.ErrExternalTool, "extract", "run", "exit 1", nil), "external_command_failed"},
		{services.Wrap(services.ErrIndexUnreadable, "convert", "read", "", nil), "index_unreadable"},
		{services.Wrap(services.ErrValidation, "", "", "", nil), "validation"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWrapWithoutDetails(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
