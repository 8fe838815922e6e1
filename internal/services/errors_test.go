package services_test

import (
	"errors"
	"testing"

	"storycast/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "scripting", "structure", "prompt is empty", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "voicing", "synthesize", "", errors.New("boom"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestDetailsStripsSentinelPrefix(t *testing.T) {
	err := services.Wrap(services.ErrExternalService, "voicing", "synthesize", "http 500", nil)
	details := services.Details(err)
	if details.Message != "voicing: synthesize: http 500" {
		t.Fatalf("unexpected message: %q", details.Message)
	}
}

func TestDetailsNilError(t *testing.T) {
	if msg := services.Details(nil).Message; msg != "" {
		t.Fatalf("expected empty message, got %q", msg)
	}
}
