package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for invocation failures. These are the only errors that
// change the process exit status.
var (
	// ErrUsage indicates the wrong number of positional arguments.
	ErrUsage = errors.New("invalid arguments")

	// ErrInvalidTarget indicates a target that is neither an IP address nor a hostname.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInvalidConfig indicates configuration that failed to load or validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

const (
	errorCodeUsage         = "USAGE"
	errorCodeInvalidTarget = "INVALID_TARGET"
	errorCodeInvalidConfig = "INVALID_CONFIG"
	errorCodeRunFailure    = "RUN_FAILURE"
)

// codedError wraps an error with an explicit error code.
type codedError struct {
	error
	code string
}

func (e *codedError) Error() string {
	return e.error.Error()
}

func (e *codedError) Unwrap() error {
	return e.error
}

func (e *codedError) Code() string {
	return e.code
}

// WithErrorCode wraps err with a specific CLI error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &codedError{error: err, code: code}
}

// ErrorCode resolves an invocation error into a CLI error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrUsage):
		return errorCodeUsage
	case errors.Is(err, ErrInvalidTarget):
		return errorCodeInvalidTarget
	case errors.Is(err, ErrInvalidConfig):
		return errorCodeInvalidConfig
	}

	return errorCodeRunFailure
}

// ExitCode maps invocation errors to process exit codes. Stage failures
// never reach here, so every non-nil error is exit status 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Suggestions provides CLI hints for invocation errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeUsage, errorCodeInvalidTarget:
		return []string{
			"Scan a single address:      hostrecon 10.0.0.5",
			"Scan a hostname:            hostrecon scanme.example.org",
		}
	case errorCodeInvalidConfig:
		return []string{
			"Show the effective config:  hostrecon --show-config",
			"Override a key from env:    HOSTRECON_SCAN_MIN_RATE=1000 hostrecon <target>",
		}
	default:
		return []string{
			"Retry with debug logs:      hostrecon --debug <target>",
		}
	}
}

// NewUsageError reports a wrong positional argument count.
func NewUsageError(got int) error {
	return WithErrorCode(fmt.Errorf("%w: expected exactly one target, got %d", ErrUsage, got), errorCodeUsage)
}

// NewNoTargetError reports positional arguments passed alongside a flag that
// replaces the scan.
func NewNoTargetError(flag string, got int) error {
	return WithErrorCode(fmt.Errorf("%w: --%s takes no target, got %d", ErrUsage, flag, got), errorCodeUsage)
}

// NewInvalidTargetError annotates an invalid target input with context.
func NewInvalidTargetError(input string, reason error) error {
	base := fmt.Errorf("%w %q", ErrInvalidTarget, input)
	if reason != nil {
		base = fmt.Errorf("%w %q: %w", ErrInvalidTarget, input, reason)
	}
	return WithErrorCode(base, errorCodeInvalidTarget)
}

// NewConfigError marks a configuration failure as an invocation error.
func NewConfigError(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("%w: %w", ErrInvalidConfig, err), errorCodeInvalidConfig)
}
