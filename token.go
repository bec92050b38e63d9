package tempoz

import (
	"context"
	"sync"
	"sync/atomic"
)

// Token is a cooperative cancellation signal that can be handed to stream
// consumers independently of any context tree. Cancellation is one-way and
// permanent: an atomic flag for polling plus a closed channel for select
// integration.
type Token struct {
	done      chan struct{}
	once      sync.Once
	cancelled atomic.Bool
}

// NewToken creates an uncancelled token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel fires the token. Safe to call from any goroutine and idempotent;
// the flag is set before the channel closes, so a goroutine woken by Done
// always observes Cancelled as true.
func (t *Token) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.done)
	})
}

// Cancelled reports whether the token has fired.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}

// Done returns a channel that closes when the token fires, for use in
// select statements alongside data channels.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Bind derives a context that ends when the token fires or the parent
// ends, whichever comes first. Use it to pass token cancellation into
// context-aware APIs.
func (t *Token) Bind(ctx context.Context) context.Context {
	bound, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		select {
		case <-t.done:
		case <-bound.Done():
		}
	}()
	return bound
}
