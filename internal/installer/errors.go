package installer

import (
	"fmt"

	"github.com/kelvie/precache/internal/metadata"
	"github.com/kelvie/precache/pkg/failure"
)

type PopulateErrorCause string

const (
	ErrCauseFetchFailure PopulateErrorCause = "fetch failed"
	ErrCauseStoreFailure PopulateErrorCause = "store failed"
)

// PopulateError is the aggregate failure of one populate operation: any
// single asset that cannot be fetched, or any staged entry that cannot be
// written, fails the whole operation as a unit.
type PopulateError struct {
	Message string
	Cause   PopulateErrorCause
	Entry   string
	Err     failure.ClassifiedError
}

func (e *PopulateError) Error() string {
	return fmt.Sprintf("populate error: %s for %q: %s", e.Cause, e.Entry, e.Message)
}

// The installer never retries a failed populate; whether to reattempt the
// install is the embedding environment's call.
func (e *PopulateError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *PopulateError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// Is allows errors.Is to match PopulateError types
func (e *PopulateError) Is(target error) bool {
	_, ok := target.(*PopulateError)
	return ok
}

// mapPopulateErrorToMetadataCause maps installer-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapPopulateErrorToMetadataCause(err *PopulateError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseFetchFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseStoreFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
