package tempoz

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestToken_CancelIdempotent(t *testing.T) {
	token := NewToken()

	if token.Cancelled() {
		t.Error("expected fresh token uncancelled")
	}

	token.Cancel()
	token.Cancel()
	token.Cancel()

	if !token.Cancelled() {
		t.Error("expected token cancelled after Cancel")
	}
}

func TestToken_DoneSelect(t *testing.T) {
	token := NewToken()

	select {
	case <-token.Done():
		t.Error("expected Done to block before cancellation")
	default:
	}

	token.Cancel()

	select {
	case <-token.Done():
	case <-time.After(time.Second):
		t.Error("expected Done closed after cancellation")
	}
}

func TestToken_FlagVisibleOnWake(t *testing.T) {
	token := NewToken()

	const waiters = 10
	var wg sync.WaitGroup
	flags := make([]bool, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-token.Done()
			flags[idx] = token.Cancelled()
		}(i)
	}

	token.Cancel()
	wg.Wait()

	// The flag is stored before the channel closes, so every woken
	// goroutine observes it set
	for i, observed := range flags {
		if !observed {
			t.Errorf("waiter %d woke without observing the cancelled flag", i)
		}
	}
}

func TestToken_ConcurrentCancel(t *testing.T) {
	token := NewToken()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token.Cancel()
		}()
	}
	wg.Wait()

	if !token.Cancelled() {
		t.Error("expected token cancelled")
	}
}

func TestToken_BindCancelsContext(t *testing.T) {
	token := NewToken()
	bound := token.Bind(context.Background())

	select {
	case <-bound.Done():
		t.Error("expected bound context live before cancellation")
	default:
	}

	token.Cancel()

	select {
	case <-bound.Done():
	case <-time.After(time.Second):
		t.Fatal("expected bound context done after token cancel")
	}
	if bound.Err() != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", bound.Err())
	}
}

func TestToken_BindParentCancellation(t *testing.T) {
	token := NewToken()
	parent, cancel := context.WithCancel(context.Background())
	bound := token.Bind(parent)

	cancel()

	select {
	case <-bound.Done():
	case <-time.After(time.Second):
		t.Fatal("expected bound context done after parent cancel")
	}
	// Parent cancellation does not fire the token itself
	if token.Cancelled() {
		t.Error("expected token still uncancelled")
	}
}

// Example demonstrates stopping a worker through a token instead of a
// context tree.
func ExampleToken() {
	token := NewToken()
	stopped := make(chan bool)

	go func() {
		<-token.Done()
		stopped <- token.Cancelled()
	}()

	token.Cancel()
	fmt.Println("worker stopped:", <-stopped)

	// Output:
	// worker stopped: true
}
