package lifecycle

import (
	"context"
	"fmt"
)

/*
 Runtime models the hosting environment's install/activate state machine
 as an injected event source, not as ambient global state.

 Dispatch guarantees:
 - Runtime is the ONLY component allowed to fire lifecycle events and to
   move between states.
 - Handlers run in subscription order, single-threaded and cooperative.
 - Extensions registered via Lifetime.ExtendUntil run sequentially, in
   registration order, after every handler has returned.
 - An event settles successfully only when all handlers and all of their
   extensions settled without error.
 - The first error settles the event as failed and is returned unwrapped
   to the caller. Retry policy for a failed install belongs to the caller,
   never to the runtime or to any handler.

 The runtime defines no cancellation or timeout semantics of its own; the
 caller's context passes through to every handler and extension.
*/
type Runtime struct {
	state    State
	handlers map[Event][]Handler
}

func NewRuntime() *Runtime {
	return &Runtime{
		state:    StateNew,
		handlers: make(map[Event][]Handler),
	}
}

func (r *Runtime) State() State {
	return r.state
}

// Subscribe registers a handler for a named lifecycle signal. Handlers
// fire in subscription order.
func (r *Runtime) Subscribe(event Event, handler Handler) {
	if handler == nil {
		return
	}
	r.handlers[event] = append(r.handlers[event], handler)
}

// Fire dispatches the event and blocks until it settles. For install,
// the runtime moves to StateInstalling for the duration of the dispatch
// and lands on StateInstalled or StateInstallFailed. A failed install may
// be fired again; that reattempt decision is the caller's.
func (r *Runtime) Fire(ctx context.Context, event Event) error {
	switch event {
	case EventInstall:
		return r.fireInstall(ctx)
	case EventActivate:
		return r.fireActivate(ctx)
	default:
		return &LifecycleError{
			Message: fmt.Sprintf("no such lifecycle event %q", event),
			Cause:   ErrCauseUnknownEvent,
		}
	}
}

func (r *Runtime) fireInstall(ctx context.Context) error {
	if r.state != StateNew && r.state != StateInstallFailed {
		return &LifecycleError{
			Message: fmt.Sprintf("cannot install from state %s", r.state),
			Cause:   ErrCauseInvalidTransition,
		}
	}

	r.state = StateInstalling
	if err := r.dispatch(ctx, EventInstall); err != nil {
		r.state = StateInstallFailed
		return err
	}
	r.state = StateInstalled
	return nil
}

func (r *Runtime) fireActivate(ctx context.Context) error {
	if r.state != StateInstalled {
		return &LifecycleError{
			Message: fmt.Sprintf("cannot activate from state %s", r.state),
			Cause:   ErrCauseInvalidTransition,
		}
	}

	if err := r.dispatch(ctx, EventActivate); err != nil {
		return err
	}
	r.state = StateActivated
	return nil
}

// dispatch runs all handlers for the event, then awaits their registered
// extensions. The collected Lifetime is what makes the install-completion
// signal wait for the populate operation.
func (r *Runtime) dispatch(ctx context.Context, event Event) error {
	lifetime := &Lifetime{event: event}

	for _, handler := range r.handlers[event] {
		if err := handler(ctx, lifetime); err != nil {
			return err
		}
	}

	for _, op := range lifetime.extensions {
		if err := op(ctx); err != nil {
			return err
		}
	}
	return nil
}
