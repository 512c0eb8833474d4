package failure

type Severity int

// installer control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract shared by every stage of the
// install pipeline. A stage classifies its own failures; only the
// installer decides what a given severity means for the install as a whole.
type ClassifiedError interface {
	error
	Severity() Severity
}
