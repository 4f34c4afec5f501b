package provision

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes categorizing step failures.
const (
	// ErrCodePrivilege: the executor is not running with required elevation.
	ErrCodePrivilege = "PRIVILEGE"
	// ErrCodePackageManager: non-zero exit from an install/update command.
	ErrCodePackageManager = "PACKAGE_MANAGER"
	// ErrCodeNetwork: a download or remote transfer failed.
	ErrCodeNetwork = "NETWORK"
	// ErrCodeConfigWrite: a configuration file write failed.
	ErrCodeConfigWrite = "CONFIG_WRITE"
	// ErrCodeService: a service start/restart/enable failed.
	ErrCodeService = "SERVICE"
	// ErrCodeIntegrity: a fetched artifact's digest did not match.
	ErrCodeIntegrity = "INTEGRITY"
	// ErrCodeScript: a delegated external script exited non-zero.
	ErrCodeScript = "SCRIPT"
	// ErrCodeDatabase: a database provisioning statement failed.
	ErrCodeDatabase = "DATABASE"
	// ErrCodeCheckFailed: a step's state predicate could not be evaluated.
	ErrCodeCheckFailed = "CHECK_FAILED"
)

// StepError is an operator-facing step failure with an actionable suggestion.
// ExitCode carries the underlying command's exit status when one exists;
// failures without an underlying process report 1.
type StepError struct {
	Code       string
	Message    string
	StepID     string
	ExitCode   int
	Suggestion string
	Underlying error
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	var parts []string

	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step %q", e.StepID))
	}
	parts = append(parts, e.Message)

	msg := strings.Join(parts, ": ")
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// NewStepError creates a StepError with the given code and message.
func NewStepError(code string, id StepID, message string) *StepError {
	return &StepError{
		Code:     code,
		Message:  message,
		StepID:   id.String(),
		ExitCode: 1,
	}
}

// WithExitCode sets the underlying command's exit status.
func (e *StepError) WithExitCode(code int) *StepError {
	e.ExitCode = code
	return e
}

// WithSuggestion sets an actionable suggestion for the operator.
func (e *StepError) WithSuggestion(s string) *StepError {
	e.Suggestion = s
	return e
}

// WithUnderlying wraps the causing error.
func (e *StepError) WithUnderlying(err error) *StepError {
	e.Underlying = err
	return e
}

// ExitCodeOf extracts the command exit status from an error chain.
// Errors that did not originate from a process report 1.
func ExitCodeOf(err error) int {
	var stepErr *StepError
	if errors.As(err, &stepErr) && stepErr.ExitCode != 0 {
		return stepErr.ExitCode
	}
	return 1
}

// CodeOf extracts the error code from an error chain, or "" if none.
func CodeOf(err error) string {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Code
	}
	return ""
}
