package lpc

// RequestSource is the adapter every actor carries on behalf of the
// requests it originates (spec.md §4.3). It exposes the owner's mailbox, the
// owner's active exception handler, a send that routes through the owner's
// mailbox outbound queue, and a responseFrom that routes an inbound response
// onto the owner's mailbox via a buffered-events queue so it is dispatched
// under that mailbox's own serialization discipline rather than delivered
// out of band.
type RequestSource interface {
	// Mailbox returns the owner's mailbox.
	Mailbox() *Mailbox

	// ExceptionHandler returns the handler currently installed for whatever
	// request this source is in the middle of issuing.
	ExceptionHandler() ExceptionHandler

	// SetExceptionHandler installs h, replacing whatever handler was active.
	SetExceptionHandler(h ExceptionHandler)

	// Enqueue appends item onto this source's mailbox outbound bucket for
	// destination, without delivering it (spec.md §4.1, §4.3's "send").
	// Named Enqueue rather than Send to keep it distinct from Actor.Send,
	// the application-facing call spec.md §6 describes.
	Enqueue(destination *Mailbox, item QueueItem)

	// ResponseFrom routes resp back onto this source's own mailbox so its
	// continuation runs under that mailbox's dispatch loop.
	ResponseFrom(resp *Response)
}

// RequestProcessor is the adapter every actor carries on behalf of the
// requests it services (spec.md §4.4). It exposes the actor's exception
// handler, a HaveEvents hook (which the mailbox does not call; see
// HaveEvents below), an Invoke that runs the actor's application method directly
// against a payload and a continuation, and a ProcessRequest that unwraps a
// queued Request and calls Invoke with a continuation that funnels the
// result into mailbox.Response.
type RequestProcessor interface {
	// Mailbox returns the owner's mailbox.
	Mailbox() *Mailbox

	// ExceptionHandler returns the handler currently installed on the
	// owner's mailbox.
	ExceptionHandler() ExceptionHandler

	// SetExceptionHandler installs h on the owner's mailbox.
	SetExceptionHandler(h ExceptionHandler)

	// HaveEvents is the adapter's new-work hook (spec.md §4.4). The
	// mailbox does not call it: an async mailbox's worker is woken by the
	// events hook WorkerMailboxFactory installs (Mailbox.SetEventsHook).
	HaveEvents()

	// Invoke runs the actor's application logic directly against payload,
	// calling respond with the eventual result. Used by syncProcess and
	// syncSend, which run the callee's logic on the caller's own stack
	// (spec.md §4.5, §6).
	Invoke(payload Message, respond Continuation)

	// ProcessRequest services a queued Request: it installs req as the
	// owner's current request, then calls Invoke with a continuation that
	// routes the result through mailbox.Response so duplicate-response and
	// current-request bookkeeping stay consistent regardless of whether the
	// request arrived synchronously or was queued (spec.md §4.4).
	ProcessRequest(req *Request)
}
