package tempoz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestSample_EmitsLatestPerTick(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	sample := NewSample[int](100*time.Millisecond, clock)
	input := make(chan Result[int])
	output := sample.Process(ctx, input)

	// Three values inside one interval; only the latest survives
	input <- NewSuccess(1)
	input <- NewSuccess(2)
	input <- NewSuccess(3)

	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()

	result := <-output
	if result.IsError() {
		t.Fatalf("Unexpected error: %v", result.Error())
	}
	if result.Value() != 3 {
		t.Errorf("Expected latest value 3, got %d", result.Value())
	}

	// A fresh value in the next interval emits on the next tick
	input <- NewSuccess(4)
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()

	result = <-output
	if result.Value() != 4 {
		t.Errorf("Expected value 4, got %d", result.Value())
	}

	close(input)
	for range output {
		t.Error("Expected no further emissions after close")
	}
}

func TestSample_QuietTickEmitsNothing(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	sample := NewSample[int](100*time.Millisecond, clock)
	input := make(chan Result[int])
	output := sample.Process(ctx, input)

	// First interval has a value
	input <- NewSuccess(1)
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()

	result := <-output
	if result.Value() != 1 {
		t.Fatalf("Expected value 1, got %d", result.Value())
	}

	// Two quiet intervals, then a new value: the next read must be the
	// new value, proving the quiet ticks emitted nothing and the held
	// value was not re-emitted.
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()

	input <- NewSuccess(2)
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()

	result = <-output
	if result.Value() != 2 {
		t.Errorf("Expected value 2 after quiet intervals, got %d", result.Value())
	}

	close(input)
	for range output {
		t.Error("Expected no further emissions")
	}
}

func TestSample_ErrorsBypassSampling(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	sample := NewSample[int](100*time.Millisecond, clock)
	input := make(chan Result[int])
	output := sample.Process(ctx, input)

	// An error emits immediately, without waiting for a tick
	input <- NewSuccess(1)
	input <- NewError(0, errors.New("sensor fault"), "test-source")

	result := <-output
	if !result.IsError() {
		t.Fatalf("Expected error to bypass sampling, got value %d", result.Value())
	}
	if result.Error().Err.Error() != "sensor fault" {
		t.Errorf("Expected 'sensor fault', got %v", result.Error().Err)
	}

	// The held value is unaffected and still emits on the tick
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()

	result = <-output
	if result.IsError() {
		t.Fatalf("Unexpected error: %v", result.Error())
	}
	if result.Value() != 1 {
		t.Errorf("Expected held value 1, got %d", result.Value())
	}

	close(input)
	for range output {
		t.Error("Expected no further emissions")
	}
}

func TestSample_NoFlushOnClose(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	sample := NewSample[int](100*time.Millisecond, clock)
	input := make(chan Result[int])
	output := sample.Process(ctx, input)

	// A value held when the input closes is discarded, not flushed
	input <- NewSuccess(42)
	close(input)

	var count int
	for range output {
		count++
	}

	if count != 0 {
		t.Errorf("Expected no emissions for an incomplete interval, got %d", count)
	}
}

func TestSample_ZeroIntervalPassthrough(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	// A non-positive interval disables sampling entirely
	sample := NewSample[int](0, clock)
	input := make(chan Result[int], 3)
	input <- NewSuccess(1)
	input <- NewSuccess(2)
	input <- NewSuccess(3)
	close(input)

	output := sample.Process(ctx, input)

	outputs := make([]int, 0, 3)
	for result := range output {
		outputs = append(outputs, result.Value())
	}

	expected := []int{1, 2, 3}
	if len(outputs) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(outputs))
	}
	for i, exp := range expected {
		if outputs[i] != exp {
			t.Errorf("Expected outputs[%d] = %d, got %d", i, exp, outputs[i])
		}
	}
}

func TestSample_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := clockz.NewFakeClock()

	sample := NewSample[int](100*time.Millisecond, clock)
	input := make(chan Result[int])
	output := sample.Process(ctx, input)

	input <- NewSuccess(1)
	cancel()

	// Output closes promptly without emitting the held value
	select {
	case result, ok := <-output:
		if ok {
			t.Errorf("Expected closed channel after cancellation, got result: %+v", result)
		}
	case <-time.After(time.Second):
		t.Error("Expected output channel to close after context cancellation")
	}
}

func TestSample_WithName(t *testing.T) {
	clock := clockz.NewFakeClock()
	sample := NewSample[int](time.Second, clock).WithName("position-sampler")

	if sample.Name() != "position-sampler" {
		t.Errorf("Expected name 'position-sampler', got '%s'", sample.Name())
	}
}

func TestSample_DefaultName(t *testing.T) {
	clock := clockz.NewFakeClock()
	sample := NewSample[int](time.Second, clock)

	if sample.Name() != "sample" {
		t.Errorf("Expected default name 'sample', got '%s'", sample.Name())
	}
}
