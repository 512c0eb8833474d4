package lifecycle

import (
	"fmt"

	"github.com/kelvie/precache/pkg/failure"
)

type LifecycleErrorCause string

const (
	ErrCauseInvalidTransition LifecycleErrorCause = "invalid transition"
	ErrCauseUnknownEvent      LifecycleErrorCause = "unknown event"
)

type LifecycleError struct {
	Message string
	Cause   LifecycleErrorCause
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("lifecycle error: %s: %s", e.Cause, e.Message)
}

// Transition mistakes are programming errors, never transient.
func (e *LifecycleError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *LifecycleError) IsRetryable() bool {
	return false
}
