// Package moodlexml provides public constants for scripts and tools that
// invoke the moodlexml CLI.
package moodlexml

// Exit codes returned by the moodlexml CLI.
const (
	// ExitSuccess indicates the run completed, even if some tasks were skipped.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure (unreadable directory, output write failure).
	ExitFailure = 1

	// ExitConfigError indicates a configuration or usage error.
	ExitConfigError = 2
)
