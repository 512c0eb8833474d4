package metadata

import (
	"time"
)

type FetchEvent struct {
	fetchUrl    string
	httpStatus  int
	duration    time.Duration
	contentType string
	retryCount  int
}

/*
installStats
  - Represents a terminal, derived summary of a completed install
  - Contains only aggregate counts, sizes, and durations
  - Is computed by the installer after the populate operation settles
  - Is recorded exactly once
  - Must not influence retries, commit decisions, or install outcome
  - Must be constructed without reading metadata
*/
type installStats struct {
	totalAssets int
	totalBytes  int64
	totalErrors int
	durationMs  int64
}

type ArtifactKind string

const (
	// An object file holding one cached asset body
	ArtifactObject ArtifactKind = "object"
	// The store index mapping keys to object files
	ArtifactIndex ArtifactKind = "index"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.
	 - ErrorCause does not imply install failure.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

const (
	// Safe fallback for failures with no clean category
	CauseUnknown ErrorCause = iota
	// Network transport or remote availability failures
	CauseNetworkFailure
	// Remote answered but the response is unusable (bad status, empty body)
	CauseContentInvalid
	// Local persistence failures (object write, index write, directory)
	CauseStorageFailure
	// Retry budget exhausted without a usable result
	CauseRetryFailure
	// A documented invariant observed to be broken
	CauseInvariantViolation
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrKey        AttributeKey = "key"
	AttrStoreName  AttributeKey = "store_name"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
	AttrField      AttributeKey = "field"
)
