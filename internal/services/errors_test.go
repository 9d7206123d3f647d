package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrSourceUnavailable, "tmdb", "search person", "Jane Doe", base)

	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	want := "source unavailable: tmdb: search person: Jane Doe: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "tmdb", "discover", "", nil)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if IsFatal(Wrap(ErrSourceUnavailable, "tmdb", "credits", "", nil)) {
		t.Fatal("source failures must not abort the run")
	}
	if IsFatal(Wrap(ErrMalformedResponse, "tmdb", "decode", "", nil)) {
		t.Fatal("malformed records must not abort the run")
	}
	if !IsFatal(Wrap(ErrPersistence, "state", "save", "", nil)) {
		t.Fatal("persistence failures must abort the run")
	}
}
