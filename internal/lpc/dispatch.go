package lpc

import (
	"context"
	"sync"
	"sync/atomic"
)

// AcceptRequest is the engine's single entry point: given a request
// originating at source (nil when the call originates outside any actor)
// and bound for target, it selects one of the five dispatch paths and runs
// it (spec.md §4.5).
//
// Let MS := source's mailbox (nil if source is nil), CS := MS's controlling
// mailbox, MT := target's mailbox, CT := MT's controlling mailbox. The
// rules, in order: (1) MS == MT → syncProcess; (2) MT is async, or there is
// no source mailbox → asyncSend; (3) CT == CS → syncSend; (4) MT can
// acquire control on CS's behalf → syncSend with mandatory post-call
// cleanup; (5) otherwise → asyncSend.
func AcceptRequest(source RequestSource, target RequestProcessor, payload Message,
	k Continuation) {

	var ms *Mailbox
	if source != nil {
		ms = source.Mailbox()
	}
	mt := target.Mailbox()

	if mt.Closed() {
		deliverClosedMailboxException(source, k)
		return
	}

	if ms != nil && ms == mt {
		syncProcess(source, target, payload, k)
		return
	}

	if mt.IsAsync() || ms == nil {
		asyncSend(source, target, payload, k)
		return
	}

	cs := ms.ControllingMailbox()
	ct := mt.ControllingMailbox()

	if ct == cs {
		syncSend(source, target, payload, k, cs, false)
		return
	}

	if mt.AcquireControl(cs) {
		syncSend(source, target, payload, k, cs, true)
		return
	}

	asyncSend(source, target, payload, k)
}

// deliverClosedMailboxException short-circuits AcceptRequest when the
// target's mailbox has already been closed: there is no application logic
// left to invoke, so ErrMailboxClosed is routed through the same
// exception-handler-then-continuation path an async exception response
// would take, rather than silently queuing a request that would only be
// dropped later by enqueueInbound.
func deliverClosedMailboxException(source RequestSource, k Continuation) {
	var ehs ExceptionHandler
	if source != nil {
		ehs = source.ExceptionHandler()
	}

	completeAsync(ehs, k, NewException(ErrMailboxClosed))
}

// syncProcess runs the target's application logic directly on the
// caller's own stack: source and target share a mailbox, so there is no
// control token to negotiate (spec.md §4.5, rule 1).
func syncProcess(source RequestSource, target RequestProcessor, payload Message,
	k Continuation) {

	ehs := source.ExceptionHandler()

	defer exceptionRecoveryDefer(source, ehs)()

	target.Invoke(payload, guardContinuation(k))
}

// exceptionRecoveryDefer builds the deferred recovery block shared by
// syncProcess and syncSend (spec.md §4.5, §4.6): on normal completion it
// restores the source's pre-call exception handler; on a TransparentException
// (a fault raised by the continuation, not by the target's application
// logic) it restores the handler and re-panics the unwrapped inner error
// untouched; on any other panic (a fault in the target's own logic) it
// restores the handler and, if one is installed, offers the error to it —
// re-panicking only the handler's own secondary failure, if any.
func exceptionRecoveryDefer(source RequestSource, ehs ExceptionHandler) func() {
	return func() {
		r := recover()
		if r == nil {
			source.SetExceptionHandler(ehs)
			return
		}

		source.SetExceptionHandler(ehs)

		if te, ok := r.(TransparentException); ok {
			panic(te.Inner)
		}

		err := toError(r)
		if ehs == nil {
			panic(err)
		}

		if herr := ehs(err); herr != nil {
			panic(herr)
		}
	}
}

// asyncSend builds a Request carrying a continuation that restores the
// source's exception handler and then routes the eventual response, and
// enqueues it through the source's own outbound buffer so delivery happens
// whenever the target mailbox next drains (spec.md §4.5, rule 2 and rule 5).
// A nil source (a call with no originating mailbox) has no outbound buffer
// to route through, so the request is handed straight to the target
// mailbox's inbound queue, as if it had arrived from outside the actor
// system; its continuation then runs with no exception handler to restore.
func asyncSend(source RequestSource, target RequestProcessor, payload Message,
	k Continuation) {

	var ehs ExceptionHandler
	if source != nil {
		ehs = source.ExceptionHandler()
	}

	req := NewRequest(source, target, payload, func(response Message) {
		if source != nil {
			source.SetExceptionHandler(ehs)
		}

		completeAsync(ehs, k, response)
	})

	if source != nil {
		source.Enqueue(target.Mailbox(), req)
		return
	}

	target.Mailbox().enqueueInbound(req)
}

// completeAsync implements the async exception-routing rule (spec.md §4.5,
// "Async exception routing"): an exception-typed response is offered to ehs
// first. A handler that fully absorbs it (returns nil) ends the routing
// there; k is never called. Only an absent handler, or a handler that
// itself fails, reaches k, carrying whichever error is the final word.
func completeAsync(ehs ExceptionHandler, k Continuation, response Message) {
	if err, ok := AsException(response); ok {
		if ehs != nil {
			secondary := ehs(err)
			if secondary == nil {
				return
			}

			err = secondary
		}

		invokeAsyncContinuation(ehs, k, NewException(err))
		return
	}

	invokeAsyncContinuation(ehs, k, response)
}

// invokeAsyncContinuation runs k and, if it panics, routes the panic through
// ehs the same way an exception-typed response would be routed — there is
// no caller stack left on the async path for an unhandled fault to unwind
// into, so a handler-absorbed panic simply ends here and an unabsorbed one
// is logged rather than left to crash whichever goroutine is draining the
// mailbox.
func invokeAsyncContinuation(ehs ExceptionHandler, k Continuation, response Message) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		err := toError(r)
		if ehs == nil {
			log.ErrorS(context.TODO(), "Continuation panicked on async completion "+
				"with no exception handler installed", err)
			return
		}

		if secondary := ehs(err); secondary != nil {
			log.ErrorS(context.TODO(), "Exception handler failed handling an async "+
				"continuation panic", secondary)
		}
	}()

	k(response)
}

// extendedResponseProcessor is the continuation syncSend hands to the
// target's processRequest. Its sync/async flags record whether the
// response arrived before processRequest returned (sync completion, cheap
// stack return) or after (async completion, the response must be
// rescheduled) (spec.md §3, §4.5).
type extendedResponseProcessor struct {
	mu        sync.Mutex
	syncFlag  bool
	asyncFlag bool
	completed atomic.Bool

	source RequestSource
	target RequestProcessor
	ms, mt *Mailbox
	ehs    ExceptionHandler
	k      Continuation
}

// process is erp's Continuation: the target calls it (directly or via
// rp.process) to deliver a response.
func (erp *extendedResponseProcessor) process(response Message) {
	if !erp.completed.CompareAndSwap(false, true) {
		log.DebugS(context.TODO(), "Dropping duplicate response on a cross-mailbox send")
		return
	}

	erp.mu.Lock()
	wasAsync := erp.asyncFlag
	if !wasAsync {
		erp.syncFlag = true
	}
	erp.mu.Unlock()

	erp.source.SetExceptionHandler(erp.ehs)

	if !wasAsync {
		// Still inside processRequest: deliver by stack return.
		guardContinuation(erp.k)(response)
		return
	}

	// processRequest already returned; this is a later, independent call.
	if err, ok := AsException(response); ok {
		completeAsync(erp.ehs, erp.k, NewException(err))
		return
	}

	ct := erp.mt.ControllingMailbox()
	cs := erp.ms.ControllingMailbox()

	switch {
	case cs == ct:
		guardContinuation(erp.k)(response)

	case erp.ms.IsAsync():
		asyncResponse(erp.source, erp.target, erp.mt, erp.k, response)

	case !erp.mt.AcquireControl(cs):
		asyncResponse(erp.source, erp.target, erp.mt, erp.k, response)

	default:
		func() {
			defer func() {
				erp.mt.SendPendingMessages()
				erp.mt.RelinquishControl()
				erp.mt.DispatchRemaining(cs)
			}()

			guardContinuation(erp.k)(response)
		}()
	}
}

// markReturned records that processRequest returned without the response
// having arrived synchronously, meaning any later call to process is the
// deferred-response case (spec.md §4.5: "if erp.sync is still false, set
// erp.async := true").
func (erp *extendedResponseProcessor) markReturned() {
	erp.mu.Lock()
	if !erp.syncFlag {
		erp.asyncFlag = true
	}
	erp.mu.Unlock()
}

// syncSend drives the cross-mailbox cooperative path: source and target do
// not share a mailbox, but either already share a controlling mailbox (rule
// 3) or target has just acquired control on the caller's behalf (rule 4,
// mandatoryCleanup true). mandatoryCleanup's block — flush target's
// outbound, relinquish control, then process whatever queued up on target
// during the loan — runs on every exit from this call, normal or
// exceptional, per spec.md §4.5 and the locking discipline in §5.
func syncSend(source RequestSource, target RequestProcessor, payload Message,
	k Continuation, cs *Mailbox, mandatoryCleanup bool) {

	ms := source.Mailbox()
	mt := target.Mailbox()
	ehs := source.ExceptionHandler()

	erp := &extendedResponseProcessor{
		source: source,
		target: target,
		ms:     ms,
		mt:     mt,
		ehs:    ehs,
		k:      k,
	}

	if mandatoryCleanup {
		defer func() {
			mt.SendPendingMessages()
			mt.RelinquishControl()
			mt.DispatchRemaining(cs)
		}()
	}

	defer exceptionRecoveryDefer(source, ehs)()

	target.Invoke(payload, erp.process)

	erp.markReturned()
}

// asyncResponse delivers a deferred response through the same plumbing an
// ordinary async response uses: it installs a fresh Request carrying k as
// target mailbox's current request, then calls the target mailbox's
// Response, which completes that request and routes the Response back
// through source's own adapter — landing k's invocation on source's mailbox
// rather than on whichever goroutine is currently driving target (spec.md
// §4.5, "asyncResponse").
func asyncResponse(source RequestSource, target RequestProcessor, mt *Mailbox,
	k Continuation, payload Message) {

	req := NewRequest(source, target, payload, guardContinuation(k))
	mt.SetCurrentRequest(req)
	mt.Response(payload)
}
