package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	personKey contextKey = "person"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(runIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithPerson annotates context with the person currently being processed.
func WithPerson(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, personKey, name)
}

// PersonFromContext returns the person name if present.
func PersonFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(personKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
