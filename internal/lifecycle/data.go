package lifecycle

import "context"

// Event is a named lifecycle signal. The runtime owns the signal names;
// components subscribe to them, never fire them.
type Event string

const (
	EventInstall  Event = "install"
	EventActivate Event = "activate"
)

// State is the runtime's position in the install/activate machine.
type State int

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateInstallFailed
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateInstallFailed:
		return "install-failed"
	case StateActivated:
		return "activated"
	default:
		return "unknown"
	}
}

// Operation is a deferred unit of work a handler ties to the lifetime of
// the event being dispatched.
type Operation func(ctx context.Context) error

// Handler receives the dispatched event's Lifetime. Work that must finish
// before the event completes is registered via Lifetime.ExtendUntil; an
// error returned directly fails the event the same way.
type Handler func(ctx context.Context, lt *Lifetime) error

// Lifetime is the scoped "extend lifetime until" contract handed to each
// handler during dispatch. Extensions registered here are awaited before
// the event is considered settled.
type Lifetime struct {
	event      Event
	extensions []Operation
}

func (l *Lifetime) Event() Event {
	return l.event
}

// ExtendUntil registers op as a condition for event completion. The
// runtime must not proceed past the event until op settles.
func (l *Lifetime) ExtendUntil(op Operation) {
	if op == nil {
		return
	}
	l.extensions = append(l.extensions, op)
}
