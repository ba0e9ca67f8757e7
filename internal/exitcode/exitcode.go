// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, bad flag values).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates the task source could not be read.
	BackendError = 3

	// InstallError indicates the asset cache could not be installed.
	InstallError = 4
)
