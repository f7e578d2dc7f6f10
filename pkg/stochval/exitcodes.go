// Package stochval provides public constants for tools that drive the
// stochval CLI, such as CI wrappers checking its exit status.
package stochval

// Exit codes returned by the stochval CLI.
const (
	// ExitSuccess indicates every case passed or was skipped.
	ExitSuccess = 0

	// ExitFailure indicates at least one Fail verdict, or an Error verdict
	// when errors are gated.
	ExitFailure = 1

	// ExitConfigError indicates an invalid configuration or suite document.
	ExitConfigError = 2

	// ExitEnvError indicates a missing collaborator such as the target engine
	// binary or Rscript.
	ExitEnvError = 3
)
