package services_test

import (
	"errors"
	"strings"
	"testing"

	"treeline/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection reset")
	err := services.Wrap(services.ErrExternalService, "upload", "train channel", "bucket unavailable", cause)

	if !errors.Is(err, services.ErrExternalService) {
		t.Fatal("expected wrapped error to match its marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped error to match the cause")
	}
	for _, fragment := range []string{"upload", "train channel", "bucket unavailable", "connection reset"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "fetch", "download", "", errors.New("boom"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected nil marker to default to transient")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name      string
		marker    error
		retryable bool
	}{
		{"external", services.ErrExternalService, true},
		{"transient", services.ErrTransient, true},
		{"timeout", services.ErrTimeout, true},
		{"validation", services.ErrValidation, false},
		{"configuration", services.ErrConfiguration, false},
		{"not_found", services.ErrNotFound, false},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "stage", "op", "", nil)
		if got := services.IsRetryable(err); got != tc.retryable {
			t.Fatalf("%s: expected retryable=%v, got %v", tc.name, tc.retryable, got)
		}
	}
}

func TestContextCarriesRunAndStage(t *testing.T) {
	ctx := services.WithRunID(services.WithStage(t.Context(), "convert"), 42)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("expected run ID 42, got %d ok=%v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "convert" {
		t.Fatalf("expected stage convert, got %q ok=%v", stage, ok)
	}
}
