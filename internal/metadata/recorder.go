package metadata

import (
	"time"

	"github.com/google/uuid"
)

/*
Metadata Collected
- Fetch timestamps and HTTP status codes
- Store write paths and sizes
- Install summaries

Logging Goals
- Debuggable install behavior
- Post-run auditability
- Failure diagnostics

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the manifest
 - Jitter is seed-controlled
 - Store contents are stable given identical inputs

Metadata is write-only.
No component may read metadata to influence install decisions.
*/

/*
Recorder captures structured install events.
It must not:
- perform I/O decisions
- affect control flow
- impose a logging backend
Ordering guarantees:
- Events are recorded synchronously in the order they are received.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	installID string
}

// NewRecorder creates a recorder tagged with a fresh install-run ID so
// events from separate install attempts can be told apart.
func NewRecorder() Recorder {
	return Recorder{
		installID: uuid.NewString(),
	}
}

func (r *Recorder) InstallID() string {
	return r.installID
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {

}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

/*
RecordInstallStats records a terminal, derived summary of a settled
install attempt.

Contract:
  - MUST be called exactly once per install execution.
  - MUST be called only after the populate operation settles
    (committed or failed).
  - The provided stats MUST be derived from installer state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow.
*/
func (r *Recorder) RecordInstallStats(
	totalAssets int,
	totalBytes int64,
	totalErrors int,
	duration time.Duration,
) {
	stats := installStats{
		totalAssets: totalAssets,
		totalBytes:  totalBytes,
		totalErrors: totalErrors,
		durationMs:  duration.Milliseconds(),
	}

	r.append(stats)
}

func (r *Recorder) append(installStats) {}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
	)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type InstallFinalizer interface {
	RecordInstallStats(
		totalAssets int,
		totalBytes int64,
		totalErrors int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink but does nothing.
// The installer (or a test) decides whether to inject Recorder or NoopSink;
// the purpose is to keep metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {

}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordInstallStats(
	totalAssets int,
	totalBytes int64,
	totalErrors int,
	duration time.Duration,
) {
}
