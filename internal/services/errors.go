package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable marks network failures and non-2xx responses
	// from an external source. The affected person or project is skipped
	// for the run.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNotFound marks a search that yielded zero candidates. Not a
	// failure; callers receive a sentinel result.
	ErrNotFound = errors.New("not found")
	// ErrMalformedResponse marks an unexpected payload shape. The
	// offending record is skipped and the batch continues.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrPersistence marks state read/write failures. Fatal for the run;
	// aborting beats committing partial state.
	ErrPersistence = errors.New("persistence failure")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrSourceUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the run instead of being
// counted as a skip.
func IsFatal(err error) bool {
	return errors.Is(err, ErrPersistence)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
