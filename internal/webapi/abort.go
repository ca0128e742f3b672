// abort.go — AbortController and AbortSignal: single-fire cancellation
// signal shared between a controller and any number of listeners/consumers.
package webapi

import "sync"

// AbortSignal carries at most one abort event, fired exactly once.
type AbortSignal struct {
	id        InstanceID
	mu        sync.Mutex
	aborted   bool
	reason    error
	listeners []func(reason error)
}

// NewAbortSignal returns a signal that has not yet fired.
func NewAbortSignal() *AbortSignal {
	return &AbortSignal{id: NewInstanceID()}
}

// AbortedSignal returns an already-aborted signal, matching
// AbortSignal.abort(reason?).
func AbortedSignal(reason error) *AbortSignal {
	if reason == nil {
		reason = NewAbortError("")
	}
	return &AbortSignal{id: NewInstanceID(), aborted: true, reason: reason}
}

// ID returns the stable cross-boundary identity of this signal.
func (s *AbortSignal) ID() InstanceID { return s.id }

// Aborted reports whether the signal has fired.
func (s *AbortSignal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Reason returns the abort reason, or nil if not yet aborted.
func (s *AbortSignal) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// ThrowIfAborted returns the abort reason if aborted, nil otherwise — the
// caller re-raises it as the guest-visible throw.
func (s *AbortSignal) ThrowIfAborted() error {
	return s.Reason()
}

// OnAbort registers a listener invoked exactly once, at abort time. If the
// signal is already aborted, fn is invoked synchronously before returning.
func (s *AbortSignal) OnAbort(fn func(reason error)) {
	s.mu.Lock()
	if s.aborted {
		reason := s.reason
		s.mu.Unlock()
		fn(reason)
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// fire transitions to aborted and dispatches to every current listener
// exactly once. Subsequent fire calls are no-ops (idempotent).
func (s *AbortSignal) fire(reason error) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return
	}
	if reason == nil {
		reason = NewAbortError("")
	}
	s.aborted = true
	s.reason = reason
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
}

// AbortController owns a signal and can fire it.
type AbortController struct {
	id     InstanceID
	signal *AbortSignal
}

// NewAbortController returns a controller over a fresh, unfired signal.
func NewAbortController() *AbortController {
	return &AbortController{id: NewInstanceID(), signal: NewAbortSignal()}
}

// ID returns the stable cross-boundary identity of this controller.
func (c *AbortController) ID() InstanceID { return c.id }

// Signal returns the same AbortSignal object on every access.
func (c *AbortController) Signal() *AbortSignal { return c.signal }

// Abort fires the controller's signal with reason (or a default AbortError
// if nil). Idempotent: only the first call has any effect.
func (c *AbortController) Abort(reason error) {
	c.signal.fire(reason)
}

// MirrorSignal creates a new AbortSignal on one side of the boundary that
// aborts whenever src (on the other side) aborts, without sharing identity
// — the concrete form of spec.md's "mirroring AbortSignals instead of
// sharing them across the boundary avoids a cyclic dependency between the
// two GCs."
func MirrorSignal(src *AbortSignal) *AbortSignal {
	mirror := NewAbortSignal()
	src.OnAbort(func(reason error) {
		mirror.fire(reason)
	})
	return mirror
}
