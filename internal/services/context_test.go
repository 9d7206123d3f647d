package services_test

import (
	"context"
	"testing"

	"marquee/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithPerson(ctx, "Jane Doe")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if person, ok := services.PersonFromContext(ctx); !ok || person != "Jane Doe" {
		t.Fatalf("unexpected person: %v %v", person, ok)
	}
}

func TestPersonBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPerson(ctx, "")
	if _, ok := services.PersonFromContext(ctx); ok {
		t.Fatal("expected no person value")
	}
}
