package demo

import (
	"fmt"

	"github.com/duskline/lpcmail/internal/lpc"
)

// GreetRequest asks a Greeter actor for a greeting addressed to Name.
type GreetRequest struct {
	lpc.BaseMessage

	Name string
}

// MessageType implements lpc.Message.
func (GreetRequest) MessageType() string { return "greet-request" }

// GreetResponse carries the greeting text produced by a Greeter actor.
type GreetResponse struct {
	lpc.BaseMessage

	Text string
}

// MessageType implements lpc.Message.
func (GreetResponse) MessageType() string { return "greet-response" }

// NewGreeter builds a ProcessFunc that answers GreetRequest payloads with a
// greeting. Used to exercise cross-mailbox and cross-domain dispatch paths
// (spec.md §8 scenarios 2-4), since unlike Multiplier it is commonly paired
// with an async worker mailbox.
func NewGreeter() lpc.ProcessFunc {
	return func(payload lpc.Message, respond lpc.Continuation) {
		req, ok := payload.(GreetRequest)
		if !ok {
			respond(lpc.NewException(errUnexpectedPayload(payload)))
			return
		}

		name := req.Name
		if name == "" {
			name = "stranger"
		}

		respond(GreetResponse{Text: fmt.Sprintf("hello, %s", name)})
	}
}

func errUnexpectedPayload(payload lpc.Message) error {
	return fmt.Errorf("demo: unexpected payload type %T", payload)
}
