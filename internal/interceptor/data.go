package interceptor

// Outcome names which of the interceptor's two states served a request.
// Recorded in the X-Precache response header for debuggability.
type Outcome string

const (
	OutcomeCacheHit Outcome = "cache-hit"
	OutcomeNetwork  Outcome = "network"
)

// outcomeHeader carries the serving outcome back to the client.
const outcomeHeader = "X-Precache"
