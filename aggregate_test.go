package tempoz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestAggregate_Sum(t *testing.T) {
	ctx := context.Background()

	summer := NewAggregate(0, Sum[int](), RealClock).
		WithCountWindow(3).
		WithName("summer")

	input := make(chan Result[int], 9)
	for i := 1; i <= 9; i++ {
		input <- NewSuccess(i)
	}
	close(input)

	windows := summer.Process(ctx, input)

	expected := []int{6, 15, 24} // 1+2+3=6, 4+5+6=15, 7+8+9=24
	var results []int            //nolint:prealloc // dynamic growth acceptable in test code

	for window := range windows {
		if window.IsError() {
			t.Fatalf("unexpected error: %v", window.Error())
		}
		results = append(results, window.Value().Result)
		if window.Value().Count != 3 {
			t.Errorf("expected count 3, got %d", window.Value().Count)
		}
	}

	if len(results) != 3 {
		t.Errorf("expected 3 windows, got %d", len(results))
	}

	for i, result := range results {
		if result != expected[i] {
			t.Errorf("window %d: expected sum %d, got %d", i, expected[i], result)
		}
	}

	if summer.Name() != "summer" {
		t.Errorf("expected name 'summer', got %s", summer.Name())
	}
}

func TestAggregate_TimeWindow(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	counter := NewAggregate(0, Count[string](), clock).
		WithTimeWindow(50 * time.Millisecond)

	input := make(chan Result[string])
	windows := counter.Process(ctx, input)

	// First burst; unbuffered sends synchronize with the aggregator
	for i := 0; i < 5; i++ {
		input <- NewSuccess(fmt.Sprintf("item-%d", i))
	}
	clock.Advance(50 * time.Millisecond)

	first := <-windows
	if first.IsError() {
		t.Fatalf("unexpected error: %v", first.Error())
	}
	if first.Value().Count != 5 {
		t.Errorf("expected first window to have 5 items, got %d", first.Value().Count)
	}
	if got := first.Value().End.Sub(first.Value().Start); got != 50*time.Millisecond {
		t.Errorf("expected 50ms window span, got %v", got)
	}

	// Second burst
	for i := 5; i < 8; i++ {
		input <- NewSuccess(fmt.Sprintf("item-%d", i))
	}
	clock.Advance(50 * time.Millisecond)

	second := <-windows
	if second.Value().Count != 3 {
		t.Errorf("expected second window to have 3 items, got %d", second.Value().Count)
	}

	close(input)
	if _, ok := <-windows; ok {
		t.Error("expected output to close with no pending data")
	}
}

func TestAggregate_Average(t *testing.T) {
	ctx := context.Background()

	averager := NewAggregate(Average{}, Avg[float64](), RealClock).
		WithCountWindow(4)

	input := make(chan Result[float64], 8)
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	for _, v := range values {
		input <- NewSuccess(v)
	}
	close(input)

	windows := averager.Process(ctx, input)

	expected := []float64{25.0, 65.0} // (10+20+30+40)/4=25, (50+60+70+80)/4=65
	var results []float64             //nolint:prealloc // dynamic growth acceptable in test code

	for window := range windows {
		results = append(results, window.Value().Result.Value())
	}

	if len(results) != 2 {
		t.Errorf("expected 2 windows, got %d", len(results))
	}

	for i, result := range results {
		if result != expected[i] {
			t.Errorf("window %d: expected average %.1f, got %.1f", i, expected[i], result)
		}
	}
}

func TestAggregate_MinMax(t *testing.T) {
	ctx := context.Background()

	minMaxer := NewAggregate(MinMax[int]{}, MinMaxAgg[int](), RealClock).
		WithCountWindow(5)

	input := make(chan Result[int], 10)
	values := []int{5, 2, 8, 1, 9, 3, 7, 4, 6, 10}
	for _, v := range values {
		input <- NewSuccess(v)
	}
	close(input)

	windows := minMaxer.Process(ctx, input)

	var results []MinMax[int] //nolint:prealloc // dynamic growth acceptable in test code
	for window := range windows {
		results = append(results, window.Value().Result)
	}

	if len(results) != 2 {
		t.Errorf("expected 2 windows, got %d", len(results))
	}

	// First window: 5,2,8,1,9 -> min=1, max=9
	if results[0].Min != 1 || results[0].Max != 9 {
		t.Errorf("window 0: expected min=1, max=9, got %s", results[0])
	}

	// Second window: 3,7,4,6,10 -> min=3, max=10
	if results[1].Min != 3 || results[1].Max != 10 {
		t.Errorf("window 1: expected min=3, max=10, got %s", results[1])
	}
}

func TestAggregate_CustomFunction(t *testing.T) {
	ctx := context.Background()

	// Custom aggregator: collect strings
	type StringList struct {
		Items []string
	}

	collector := NewAggregate(
		StringList{},
		func(list StringList, item string) StringList {
			list.Items = append(list.Items, item)
			return list
		},
		RealClock,
	).WithCountWindow(3)

	input := make(chan Result[string], 6)
	words := []string{"hello", "world", "from", "go", "channels", "!"}
	for _, w := range words {
		input <- NewSuccess(w)
	}
	close(input)

	windows := collector.Process(ctx, input)

	var results []StringList //nolint:prealloc // dynamic growth acceptable in test code
	for window := range windows {
		results = append(results, window.Value().Result)
	}

	if len(results) != 2 {
		t.Errorf("expected 2 windows, got %d", len(results))
	}

	// First window
	if len(results[0].Items) != 3 {
		t.Errorf("expected 3 items in first window, got %d", len(results[0].Items))
	}
	if results[0].Items[0] != "hello" || results[0].Items[2] != "from" {
		t.Errorf("unexpected items in first window: %v", results[0].Items)
	}
}

func TestAggregate_MixedTriggers(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()

	// Emit on count OR time, whichever comes first
	summer := NewAggregate(0, Sum[int](), clock).
		WithCountWindow(5).
		WithTimeWindow(150 * time.Millisecond)

	input := make(chan Result[int])
	windows := summer.Process(ctx, input)

	// Quick burst triggers the count window
	for i := 1; i <= 5; i++ {
		input <- NewSuccess(i)
	}

	first := <-windows
	if first.Value().Count != 5 || first.Value().Result != 15 {
		t.Errorf("first window unexpected: count=%d, sum=%d", first.Value().Count, first.Value().Result)
	}

	// Slow items trigger the time window
	input <- NewSuccess(6)
	input <- NewSuccess(7)
	clock.Advance(150 * time.Millisecond)

	second := <-windows
	if second.Value().Count != 2 || second.Value().Result != 13 {
		t.Errorf("second window unexpected: count=%d, sum=%d", second.Value().Count, second.Value().Result)
	}

	close(input)
}

func TestAggregate_ErrorPassthrough(t *testing.T) {
	ctx := context.Background()

	summer := NewAggregate(0, Sum[int](), RealClock).
		WithCountWindow(10)

	input := make(chan Result[int])
	windows := summer.Process(ctx, input)

	input <- NewSuccess(1)
	input <- NewError(99, errors.New("sensor fault"), "upstream")

	// The error is forwarded immediately and never touches the state
	errResult := <-windows
	if !errResult.IsError() {
		t.Fatalf("expected error result, got %v", errResult)
	}
	if errResult.Error().ProcessorName != "upstream" {
		t.Errorf("expected processor name 'upstream', got %s", errResult.Error().ProcessorName)
	}
	if errResult.Error().Err.Error() != "sensor fault" {
		t.Errorf("expected 'sensor fault', got %q", errResult.Error().Err.Error())
	}

	input <- NewSuccess(2)
	close(input)

	final := <-windows
	if final.IsError() {
		t.Fatalf("unexpected error: %v", final.Error())
	}
	if final.Value().Count != 2 || final.Value().Result != 3 {
		t.Errorf("final window unexpected: count=%d, sum=%d", final.Value().Count, final.Value().Result)
	}
}

func TestAggregate_EmptyWindows(t *testing.T) {
	ctx := context.Background()

	t.Run("Enabled", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		counter := NewAggregate(0, Count[int](), clock).
			WithTimeWindow(50 * time.Millisecond).
			WithEmptyWindows(true)

		input := make(chan Result[int])
		windows := counter.Process(ctx, input)

		clock.Advance(50 * time.Millisecond)
		first := <-windows
		if first.Value().Count != 0 {
			t.Errorf("expected empty window, got count %d", first.Value().Count)
		}

		clock.Advance(50 * time.Millisecond)
		second := <-windows
		if second.Value().Count != 0 {
			t.Errorf("expected empty window, got count %d", second.Value().Count)
		}

		close(input)
	})

	t.Run("Disabled", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		counter := NewAggregate(0, Count[int](), clock).
			WithTimeWindow(50 * time.Millisecond).
			WithEmptyWindows(false)

		input := make(chan Result[int])
		windows := counter.Process(ctx, input)

		clock.Advance(150 * time.Millisecond)
		close(input)

		count := 0
		for range windows {
			count++
		}

		if count != 0 {
			t.Errorf("expected no windows without data, got %d", count)
		}
	})
}

func TestAggregate_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := clockz.NewFakeClock()

	summer := NewAggregate(0, Sum[int](), clock).
		WithTimeWindow(100 * time.Millisecond)

	input := make(chan Result[int])
	windows := summer.Process(ctx, input)

	input <- NewSuccess(1)
	input <- NewSuccess(2)
	cancel()

	// Output closes without a final window on cancellation
	select {
	case _, ok := <-windows:
		if ok {
			t.Error("expected output to close without emitting on cancellation")
		}
	case <-time.After(time.Second):
		t.Error("output didn't close after cancellation")
	}

	close(input)
}

func TestAggregate_GetCurrentState(t *testing.T) {
	ctx := context.Background()

	summer := NewAggregate(0, Sum[int](), RealClock).
		WithCountWindow(10) // High count so we can inspect mid-aggregation

	input := make(chan Result[int])
	out := summer.Process(ctx, input)

	for i := 1; i <= 5; i++ {
		input <- NewSuccess(i)
	}

	// A forwarded error proves the values before it have been folded in
	input <- NewError(0, errors.New("marker"), "test")
	<-out

	state, count := summer.GetCurrentState()
	if state != 15 { // 1+2+3+4+5
		t.Errorf("expected current sum 15, got %d", state)
	}
	if count != 5 {
		t.Errorf("expected current count 5, got %d", count)
	}

	close(input)
	for range out { //nolint:revive // Intentionally draining channel
	}
}

func TestAggregate_EdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("ZeroCountWindow", func(t *testing.T) {
		// Should default to 1
		agg := NewAggregate(0, Sum[int](), RealClock).WithCountWindow(0)
		if agg.maxCount != 1 {
			t.Errorf("expected count window to default to 1, got %d", agg.maxCount)
		}
	})

	t.Run("NegativeTimeWindow", func(t *testing.T) {
		// Should default to 0 (disabled)
		agg := NewAggregate(0, Sum[int](), RealClock).WithTimeWindow(-1 * time.Second)
		if agg.maxLatency != 0 {
			t.Errorf("expected time window to be disabled, got %v", agg.maxLatency)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		summer := NewAggregate(0, Sum[int](), RealClock).WithCountWindow(5)

		input := make(chan Result[int])
		close(input)

		windows := summer.Process(ctx, input)

		count := 0
		for range windows {
			count++
		}

		if count != 0 {
			t.Errorf("expected no windows for empty input, got %d", count)
		}
	})

	t.Run("SingleItem", func(t *testing.T) {
		summer := NewAggregate(0, Sum[int](), RealClock).WithCountWindow(5)

		input := make(chan Result[int], 1)
		input <- NewSuccess(42)
		close(input)

		windows := summer.Process(ctx, input)

		var results []AggregateWindow[int] //nolint:prealloc // dynamic growth acceptable in test code
		for window := range windows {
			results = append(results, window.Value())
		}

		// Should emit final window with partial data
		if len(results) != 1 {
			t.Errorf("expected 1 window, got %d", len(results))
		}
		if results[0].Result != 42 {
			t.Errorf("expected sum 42, got %d", results[0].Result)
		}
		if results[0].Count != 1 {
			t.Errorf("expected count 1, got %d", results[0].Count)
		}
	})
}

// BenchmarkAggregate benchmarks aggregation performance.
func BenchmarkAggregate(b *testing.B) {
	ctx := context.Background()

	summer := NewAggregate(0, Sum[int](), RealClock).WithCountWindow(100)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		input := make(chan Result[int], 100)
		for j := 0; j < 100; j++ {
			input <- NewSuccess(j)
		}
		close(input)

		windows := summer.Process(ctx, input)
		for range windows { //nolint:revive // Intentionally draining channel
			// Consume
		}
	}
}

// BenchmarkAggregateThroughput benchmarks high-throughput aggregation.
func BenchmarkAggregateThroughput(b *testing.B) {
	ctx := context.Background()

	summer := NewAggregate(0, Sum[int](), RealClock).WithCountWindow(1000)

	b.ResetTimer()
	b.ReportAllocs()

	input := make(chan Result[int], 1000)
	windows := summer.Process(ctx, input)

	// Consumer
	go func() {
		for range windows { //nolint:revive // Intentionally draining channel
			// Consume
		}
	}()

	// Send items
	for i := 0; i < b.N; i++ {
		input <- NewSuccess(i)
	}
	close(input)
}

// Example demonstrates custom aggregation.
func ExampleAggregate_custom() {
	ctx := context.Background()

	// Track unique users
	type UserSet map[string]bool

	uniqueUsers := NewAggregate(
		make(UserSet),
		func(users UserSet, userID string) UserSet {
			// Create new map to avoid mutation
			newUsers := make(UserSet)
			for k, v := range users {
				newUsers[k] = v
			}
			newUsers[userID] = true
			return newUsers
		},
		RealClock,
	).WithCountWindow(5)

	// User activity stream
	activity := make(chan Result[string], 10)
	activity <- NewSuccess("alice")
	activity <- NewSuccess("bob")
	activity <- NewSuccess("alice") // duplicate
	activity <- NewSuccess("charlie")
	activity <- NewSuccess("bob") // duplicate
	activity <- NewSuccess("david")
	activity <- NewSuccess("eve")
	activity <- NewSuccess("alice") // duplicate
	close(activity)

	// Process windows
	windows := uniqueUsers.Process(ctx, activity)

	windowNum := 1
	for window := range windows {
		if window.IsError() {
			continue
		}
		fmt.Printf("Window %d: %d unique users\n", windowNum, len(window.Value().Result))
		windowNum++
	}

	// Output:
	// Window 1: 3 unique users
	// Window 2: 3 unique users
}
