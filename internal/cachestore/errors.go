package cachestore

import (
	"fmt"

	"github.com/kelvie/precache/internal/metadata"
	"github.com/kelvie/precache/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseInvalidName           StoreErrorCause = "invalid store name"
	ErrCauseOpenFailure           StoreErrorCause = "open failed"
	ErrCauseIndexCorrupt          StoreErrorCause = "index corrupt"
	ErrCauseWriteFailure          StoreErrorCause = "write failed"
	ErrCauseReadFailure           StoreErrorCause = "read failed"
	ErrCauseHashComputationFailed StoreErrorCause = "hash computation failed"
)

type StoreError struct {
	Message   string
	Retryable bool
	Cause     StoreErrorCause
	Path      string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache store error: %s: %s", e.Cause, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *StoreError) IsRetryable() bool {
	return e.Retryable
}

// mapStoreErrorToMetadataCause maps store-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapStoreErrorToMetadataCause(err *StoreError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseOpenFailure, ErrCauseWriteFailure, ErrCauseReadFailure, ErrCauseIndexCorrupt:
		return metadata.CauseStorageFailure
	case ErrCauseInvalidName:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
