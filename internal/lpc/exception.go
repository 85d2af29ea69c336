package lpc

import "fmt"

// TransparentException wraps an error raised by a continuation so the
// dispatch engine can distinguish it from an error raised by the target's
// ProcessFunc body. It must be unwrapped at the first catcher and the inner
// error re-raised, because only ProcessFunc-originating errors are offered
// to an exception handler: the caller's, captured before dispatch (see
// exceptionRecoveryDefer in dispatch.go).
type TransparentException struct {
	Inner error
}

// Error implements the error interface.
func (t TransparentException) Error() string {
	return fmt.Sprintf("transparent exception: %v", t.Inner)
}

// Unwrap exposes the wrapped error for errors.Is/errors.As.
func (t TransparentException) Unwrap() error {
	return t.Inner
}

// guardContinuation wraps a continuation so that any panic raised while it
// runs is re-panicked as a TransparentException. This is how the dispatch
// engine tells apart "the caller's continuation misbehaved" (never offered
// to an exception handler) from "the callee's ProcessFunc body misbehaved"
// (offered to the caller's handler), without Go's lack of checked exceptions getting in
// the way: both kinds of fault unwind the same physical goroutine stack, so
// the wrapper is what lets the recover site downstream tell them apart.
func guardContinuation(k Continuation) Continuation {
	return func(payload Message) {
		defer func() {
			if r := recover(); r != nil {
				panic(TransparentException{Inner: toError(r)})
			}
		}()

		k(payload)
	}
}

// toError normalizes a recovered panic value to an error.
func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}

	return fmt.Errorf("%v", r)
}
