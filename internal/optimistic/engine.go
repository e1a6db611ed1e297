// Package optimistic applies local state changes before the server confirms
// them and rolls them back to the exact prior value when it does not.
//
// An operation runs in two phases so an event loop never blocks on the network:
// Begin applies the new value synchronously and returns a Pending; the caller
// runs Pending.Mutate off the loop and hands the result back to Settle on the
// loop. Do chains the three for synchronous callers.
package optimistic

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmcdole/servies/internal/notify"
)

// ErrInFlight is returned by Begin when an operation on the same key has not settled yet.
var ErrInFlight = errors.New("operation already in flight")

// MutateFunc sends the state-changing request. nil means the server accepted it.
type MutateFunc func(ctx context.Context) error

// Outcome reports how a pending operation settled
type Outcome int

const (
	OutcomeConfirmed  Outcome = iota // Server accepted; optimistic value kept
	OutcomeRolledBack                // Server rejected; prior value restored
	OutcomeDropped                   // Owner gone or superseded; nothing touched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeRolledBack:
		return "rolled back"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Op describes one optimistic state change.
type Op[T any] struct {
	Key    string     // Serialization key, e.g. "watched:movie-42"
	Prev   T          // Value at the moment the action was initiated
	Next   T          // Optimistic value
	Apply  func(T)    // Writes a value into local state
	Mutate MutateFunc // Remote call

	// Describe builds the notification text for the settled operation.
	// ok is false when the mutation failed.
	Describe func(next T, ok bool) string

	// Alive reports whether the owner of the state still exists.
	// When it returns false at settle time the result is dropped silently.
	Alive func() bool
}

// Pending is an applied but unconfirmed operation
type Pending[T any] struct {
	op      Op[T]
	settled bool
}

// Key returns the serialization key of the operation
func (p *Pending[T]) Key() string { return p.op.Key }

// Prev returns the value captured when the operation began
func (p *Pending[T]) Prev() T { return p.op.Prev }

// Next returns the optimistic value
func (p *Pending[T]) Next() T { return p.op.Next }

// Mutate performs the remote call. Safe to run off the event loop.
func (p *Pending[T]) Mutate(ctx context.Context) error {
	if p.op.Mutate == nil {
		return nil
	}
	return p.op.Mutate(ctx)
}

// Engine coordinates optimistic operations for one kind of state.
type Engine[T any] struct {
	notifier notify.Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates an engine that reports settled operations to notifier.
func New[T any](notifier notify.Notifier, logger *slog.Logger) *Engine[T] {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine[T]{
		notifier: notifier,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Begin applies op.Next immediately and marks op.Key busy until Settle.
func (e *Engine[T]) Begin(op Op[T]) (*Pending[T], error) {
	e.mu.Lock()
	if _, busy := e.inflight[op.Key]; busy {
		e.mu.Unlock()
		e.logger.Debug("optimistic op rejected, key busy", "key", op.Key)
		return nil, ErrInFlight
	}
	e.inflight[op.Key] = struct{}{}
	e.mu.Unlock()

	if op.Apply != nil {
		op.Apply(op.Next)
	}
	return &Pending[T]{op: op}, nil
}

// Settle reconciles a pending operation with the mutation result.
// A failed mutation restores Prev exactly. Exactly one notification is
// emitted unless the result is dropped.
func (e *Engine[T]) Settle(p *Pending[T], err error) Outcome {
	if p == nil {
		return OutcomeDropped
	}

	e.mu.Lock()
	if p.settled {
		e.mu.Unlock()
		return OutcomeDropped
	}
	p.settled = true
	delete(e.inflight, p.op.Key)
	e.mu.Unlock()

	if p.op.Alive != nil && !p.op.Alive() {
		e.logger.Debug("optimistic op dropped, owner gone", "key", p.op.Key, "error", err)
		return OutcomeDropped
	}

	if err != nil {
		if p.op.Apply != nil {
			p.op.Apply(p.op.Prev)
		}
		e.logger.Warn("optimistic op rolled back", "key", p.op.Key, "error", err)
		e.notifier.Notify(notify.KindFailure, e.describe(p, false))
		return OutcomeRolledBack
	}

	e.logger.Debug("optimistic op confirmed", "key", p.op.Key)
	e.notifier.Notify(notify.KindSuccess, e.describe(p, true))
	return OutcomeConfirmed
}

// Do runs Begin, Mutate and Settle in sequence. The returned error is
// ErrInFlight or the mutation error (after rollback).
func (e *Engine[T]) Do(ctx context.Context, op Op[T]) (Outcome, error) {
	p, err := e.Begin(op)
	if err != nil {
		return OutcomeDropped, err
	}
	mutErr := p.Mutate(ctx)
	return e.Settle(p, mutErr), mutErr
}

// Action is a begun operation bound to the engine that settles it, so an
// event loop can carry operations of different value types in one message.
type Action struct {
	key    string
	mutate func(ctx context.Context) error
	settle func(err error) Outcome
}

// Key returns the serialization key of the operation
func (a *Action) Key() string { return a.key }

// Mutate performs the remote call
func (a *Action) Mutate(ctx context.Context) error { return a.mutate(ctx) }

// Settle reconciles the operation with the mutation result
func (a *Action) Settle(err error) Outcome { return a.settle(err) }

// Run mutates and settles in one go.
func (a *Action) Run(ctx context.Context) (Outcome, error) {
	err := a.Mutate(ctx)
	return a.Settle(err), err
}

// Start is Begin returning an Action.
func (e *Engine[T]) Start(op Op[T]) (*Action, error) {
	p, err := e.Begin(op)
	if err != nil {
		return nil, err
	}
	return &Action{
		key:    op.Key,
		mutate: p.Mutate,
		settle: func(err error) Outcome { return e.Settle(p, err) },
	}, nil
}

// InFlight reports whether key has an unsettled operation
func (e *Engine[T]) InFlight(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[key]
	return ok
}

func (e *Engine[T]) describe(p *Pending[T], ok bool) string {
	if p.op.Describe != nil {
		return p.op.Describe(p.op.Next, ok)
	}
	if ok {
		return "Updated"
	}
	return "Update failed"
}

// ToggleOp builds the Op that flips a boolean: Next = !current, Prev = current.
func ToggleOp(key string, current bool, apply func(bool), mutate MutateFunc, describe func(next bool, ok bool) string) Op[bool] {
	return Op[bool]{
		Key:      key,
		Prev:     current,
		Next:     !current,
		Apply:    apply,
		Mutate:   mutate,
		Describe: describe,
	}
}

// Toggle flips a boolean optimistically and waits for the server.
func Toggle(ctx context.Context, e *Engine[bool], key string, current bool, apply func(bool), mutate MutateFunc, describe func(next bool, ok bool) string) (Outcome, error) {
	return e.Do(ctx, ToggleOp(key, current, apply, mutate, describe))
}
