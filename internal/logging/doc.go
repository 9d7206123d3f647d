// Package logging builds the slog loggers used across marquee.
//
// It offers a console handler for interactive runs and a JSON handler for
// machine-readable output, plus typed attribute helpers and the
// standardized field names failures are logged with (person, project ID,
// source, status code) so a run can be diagnosed without re-running.
package logging
