// Package demo provides small illustrative actors exercised by cmd/lpcmaild
// and used to demonstrate each of the core dispatch paths end to end.
package demo

import (
	"github.com/duskline/lpcmail/internal/lpc"
)

// MultiplyRequest asks a Multiplier actor to compute A*B.
type MultiplyRequest struct {
	lpc.BaseMessage

	A, B int
}

// MessageType implements lpc.Message.
func (MultiplyRequest) MessageType() string { return "multiply-request" }

// MultiplyResponse carries the product computed by a Multiplier actor.
type MultiplyResponse struct {
	lpc.BaseMessage

	Product int
}

// MessageType implements lpc.Message.
func (MultiplyResponse) MessageType() string { return "multiply-response" }

// NewMultiplier builds a ProcessFunc that answers MultiplyRequest payloads
// with their product, replying with an Exception for anything else. It is
// deliberately cheap enough to finish within the caller's own stack frame,
// the shape spec.md §8 scenario 1 (same-mailbox multiply) relies on.
func NewMultiplier() lpc.ProcessFunc {
	return func(payload lpc.Message, respond lpc.Continuation) {
		req, ok := payload.(MultiplyRequest)
		if !ok {
			respond(lpc.NewException(errUnexpectedPayload(payload)))
			return
		}

		respond(MultiplyResponse{Product: req.A * req.B})
	}
}
