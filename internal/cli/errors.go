package cli

// CommandError provides structured error reporting for CLI commands.
type CommandError struct {
	Message  string
	Cause    error
	ExitCode int
}

// Error implements the error interface.
func (e CommandError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "command failed"
}

// Unwrap exposes the wrapped error.
func (e CommandError) Unwrap() error {
	return e.Cause
}

// ExitStatus returns the process exit code associated with the error.
func (e CommandError) ExitStatus() int {
	if e.ExitCode != 0 {
		return e.ExitCode
	}
	return 1
}

// wrapError builds a CommandError as an error interface.
func wrapError(message string, cause error) error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return CommandError{Message: message, Cause: cause}
}
