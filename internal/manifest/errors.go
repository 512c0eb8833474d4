package manifest

import (
	"fmt"

	"github.com/kelvie/precache/pkg/failure"
)

type ManifestErrorCause string

const (
	ErrCauseEmptyManifest ManifestErrorCause = "empty manifest"
	ErrCauseEmptyEntry    ManifestErrorCause = "empty entry"
	ErrCauseAbsoluteEntry ManifestErrorCause = "absolute entry"
	ErrCauseEscapingEntry ManifestErrorCause = "escaping entry"
	ErrCauseUnparseable   ManifestErrorCause = "unparseable entry"
)

type ManifestError struct {
	Message string
	Cause   ManifestErrorCause
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest error: %s: %s", e.Cause, e.Message)
}

// Manifest problems are configuration mistakes; retrying cannot fix them.
func (e *ManifestError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *ManifestError) IsRetryable() bool {
	return false
}
