// Package actorutil provides blocking and fan-out convenience wrappers
// around the continuation-passing internal/lpc dispatch engine, grounded on
// the teacher's actor-ask helper package.
package actorutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/duskline/lpcmail/internal/lpc"
)

// Ask sends payload from source to target and blocks until a response
// arrives or ctx is done, unpacking an Exception-typed response into the
// Result's error leg (spec.md §9's open question on encoding "response
// carries either a value or an error").
func Ask(ctx context.Context, source, target *lpc.Actor,
	payload lpc.Message) fn.Result[lpc.Message] {

	respCh := make(chan lpc.Message, 1)

	source.Send(target, payload, func(response lpc.Message) {
		respCh <- response
	})

	select {
	case response := <-respCh:
		if err, ok := lpc.AsException(response); ok {
			return fn.Err[lpc.Message](err)
		}

		return fn.Ok(response)

	case <-ctx.Done():
		return fn.Err[lpc.Message](ctx.Err())
	}
}

// AskAwait unpacks Ask's Result into the (value, error) shape most Go
// callers expect.
func AskAwait(ctx context.Context, source, target *lpc.Actor,
	payload lpc.Message) (lpc.Message, error) {

	return Ask(ctx, source, target, payload).Unpack()
}

// AskTyped is AskAwait plus a type assertion on the response, for callers
// that know the concrete Message type a given target replies with.
func AskTyped[T lpc.Message](ctx context.Context, source, target *lpc.Actor,
	payload lpc.Message) (T, error) {

	resp, err := AskAwait(ctx, source, target, payload)
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := resp.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf(
			"unexpected response type: got %T, want %T", resp, zero,
		)
	}

	return typed, nil
}

// TellAll sends payload from source to every actor in targets, fire-and-
// forget: no observation is made of what each target replies with.
func TellAll(source *lpc.Actor, targets []*lpc.Actor, payload lpc.Message) {
	for _, target := range targets {
		source.Send(target, payload, func(lpc.Message) {})
	}
}

// ParallelAsk sends payloads to targets concurrently and collects all
// results in input order. targets and payloads must have the same length.
func ParallelAsk(ctx context.Context, source *lpc.Actor, targets []*lpc.Actor,
	payloads []lpc.Message) []fn.Result[lpc.Message] {

	if len(targets) != len(payloads) {
		panic("actorutil: targets and payloads must have the same length")
	}

	results := make([]fn.Result[lpc.Message], len(targets))

	var wg sync.WaitGroup
	wg.Add(len(targets))

	for i := range targets {
		go func(i int) {
			defer wg.Done()
			results[i] = Ask(ctx, source, targets[i], payloads[i])
		}(i)
	}

	wg.Wait()

	return results
}

// ParallelAskSame sends the same payload to every target concurrently.
func ParallelAskSame(ctx context.Context, source *lpc.Actor, targets []*lpc.Actor,
	payload lpc.Message) []fn.Result[lpc.Message] {

	payloads := make([]lpc.Message, len(targets))
	for i := range payloads {
		payloads[i] = payload
	}

	return ParallelAsk(ctx, source, targets, payloads)
}

// FirstSuccess sends payload to every target concurrently and returns the
// first successful response; if every target fails, the last observed
// error wins.
func FirstSuccess(ctx context.Context, source *lpc.Actor, targets []*lpc.Actor,
	payload lpc.Message) (lpc.Message, error) {

	if len(targets) == 0 {
		return nil, fmt.Errorf("actorutil: no targets provided")
	}

	resultCh := make(chan fn.Result[lpc.Message], len(targets))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, target := range targets {
		go func(target *lpc.Actor) {
			result := Ask(ctx, source, target, payload)
			select {
			case resultCh <- result:
			case <-ctx.Done():
			}
		}(target)
	}

	var lastErr error
	for i := 0; i < len(targets); i++ {
		select {
		case result := <-resultCh:
			val, err := result.Unpack()
			if err == nil {
				cancel()
				return val, nil
			}

			lastErr = err

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// MapResponses transforms each successful result with mapFn; error results
// pass through unchanged.
func MapResponses[T any](results []fn.Result[lpc.Message],
	mapFn func(lpc.Message) T) []fn.Result[T] {

	mapped := make([]fn.Result[T], len(results))
	for i, r := range results {
		val, err := r.Unpack()
		if err != nil {
			mapped[i] = fn.Err[T](err)
			continue
		}

		mapped[i] = fn.Ok(mapFn(val))
	}

	return mapped
}

// CollectSuccesses returns only the successful values from results,
// discarding errors.
func CollectSuccesses(results []fn.Result[lpc.Message]) []lpc.Message {
	var successes []lpc.Message
	for _, r := range results {
		if val, err := r.Unpack(); err == nil {
			successes = append(successes, val)
		}
	}

	return successes
}

// AllSucceeded reports whether every result in results succeeded.
func AllSucceeded(results []fn.Result[lpc.Message]) bool {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return false
		}
	}

	return true
}

// FirstError returns the first error among results, or nil if all
// succeeded.
func FirstError(results []fn.Result[lpc.Message]) error {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return err
		}
	}

	return nil
}
