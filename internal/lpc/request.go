package lpc

import "sync/atomic"

// Continuation is the response handler a caller hands to Send. The engine
// invokes it with the eventual response payload, either re-entrantly on the
// caller's own stack (synchronous completion) or later, after the target
// mailbox drains (asynchronous completion). A Continuation may panic with an
// error to signal a fault in the caller's own handling of the response; the
// engine wraps such a panic in a TransparentException so it is never
// mistaken for a fault in the callee's ProcessFunc (spec.md §4.6).
type Continuation func(response Message)

// ProcessFunc is the single polymorphic capability the dispatch engine
// requires of a target actor (spec.md §9, Design Notes): given a request
// payload and a continuation, do whatever the application logic does and
// eventually invoke the continuation with the result, either before
// returning (synchronous response) or after returning (deferred response,
// see asyncResponse in dispatch.go).
type ProcessFunc func(payload Message, respond Continuation)

// ExceptionHandler observes an error that escaped an actor's ProcessFunc (or
// that was routed to it via the async exception path). It returns a
// non-nil secondary error if handling the first one itself failed; the
// dispatch engine routes that secondary error the same way it would have
// routed the original (spec.md §7: "the last handler to fail wins").
type ExceptionHandler func(err error) error

// Request wraps an application payload together with its source, its
// target's processor, and the continuation that will eventually receive the
// response (spec.md §3).
type Request struct {
	// Source is the originating RequestSource adapter.
	Source RequestSource

	// Processor is the target's RequestProcessor adapter.
	Processor RequestProcessor

	// Payload is the application request object.
	Payload Message

	// Continuation is the response handler to invoke with the eventual
	// result.
	Continuation Continuation

	// active is true until the first response; subsequent responses are
	// dropped (spec.md invariant I2). Accessed via atomic CompareAndSwap
	// so that a duplicate rp.process call from a racing goroutine is
	// dropped rather than double-delivered.
	active atomic.Bool
}

// NewRequest constructs a Request in the active state.
func NewRequest(source RequestSource, processor RequestProcessor,
	payload Message, continuation Continuation) *Request {

	req := &Request{
		Source:       source,
		Processor:    processor,
		Payload:      payload,
		Continuation: continuation,
	}
	req.active.Store(true)

	return req
}

// TryComplete clears the active bit and reports whether this call was the
// one to do so. A false return means a prior call already completed the
// request and the response being processed now must be silently dropped
// (spec.md invariant I2, §8 "duplicate response" scenario).
func (r *Request) TryComplete() bool {
	return r.active.CompareAndSwap(true, false)
}

// Active reports whether this request has not yet received a response.
func (r *Request) Active() bool {
	return r.active.Load()
}

// Response carries a payload and a back-reference to the Request it
// answers (spec.md §3).
type Response struct {
	// Payload is the result value, or an Exception wrapping an error.
	Payload Message

	// Request is the request this response answers.
	Request *Request
}
