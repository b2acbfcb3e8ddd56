package sequencer

import (
	"errors"
	"fmt"
	"strings"

	"mediafx/internal/host"
)

var (
	// ErrSequencer is the root of every failure raised by this package.
	ErrSequencer = errors.New("sequencer error")
	// ErrLifecycle marks a violated Session lifecycle rule.
	ErrLifecycle = fmt.Errorf("%w: lifecycle violation", ErrSequencer)
	// ErrOperation marks a host operator that did not finish.
	ErrOperation = fmt.Errorf("%w: operation failed", ErrSequencer)
	// ErrInvalidHandle marks a handle that no longer resolves.
	ErrInvalidHandle = fmt.Errorf("%w: invalid handle", ErrSequencer)
)

// OpsError reports a host operator whose result was not exactly {FINISHED}.
type OpsError struct {
	Operator string
	Message  string
	Result   host.Result
}

func (e *OpsError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Operator != "" {
		b.WriteString(" (")
		b.WriteString(e.Operator)
		b.WriteString(" returned ")
		b.WriteString(e.Result.String())
		b.WriteString(")")
	}
	return b.String()
}

func (e *OpsError) Unwrap() error { return ErrOperation }

// HandleError reports a handle that could not be resolved.
type HandleError struct {
	Name   string
	Reason string
}

func (e *HandleError) Error() string {
	if e.Name == "" {
		return "invalid handle: " + e.Reason
	}
	return fmt.Sprintf("invalid handle %q: %s", e.Name, e.Reason)
}

func (e *HandleError) Unwrap() error { return ErrInvalidHandle }

func lifecycleError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLifecycle, fmt.Sprintf(format, args...))
}

// checkResult converts a non-finished operator result into an *OpsError.
func checkResult(operator string, result host.Result, message string) error {
	if result.IsFinished() {
		return nil
	}
	return &OpsError{Operator: operator, Message: message, Result: host.ResultOf(result...)}
}

// IsLifecycle reports whether err is a lifecycle violation.
func IsLifecycle(err error) bool { return errors.Is(err, ErrLifecycle) }

// IsOperation reports whether err is a failed host operation.
func IsOperation(err error) bool { return errors.Is(err, ErrOperation) }

// IsInvalidHandle reports whether err comes from an unresolvable handle.
func IsInvalidHandle(err error) bool { return errors.Is(err, ErrInvalidHandle) }
