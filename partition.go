package tempoz

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync/atomic"
)

// PartitionOutput provides access to individual partition channels.
type PartitionOutput[T any] struct {
	// Partitions contains the output channels for each partition.
	Partitions []<-chan Result[T]
}

// GetPartition returns the output channel for a specific partition index.
func (po PartitionOutput[T]) GetPartition(index int) <-chan Result[T] {
	if index < 0 || index >= len(po.Partitions) {
		return nil
	}
	return po.Partitions[index]
}

// Partitioner determines which partition a key should be routed to.
type Partitioner func(key string, numPartitions int) int

// DefaultPartitioner uses consistent hashing to distribute keys across
// partitions.
func DefaultPartitioner(key string, numPartitions int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	if numPartitions <= 0 {
		return 0
	}
	// Use uint64 to avoid overflow on conversion.
	sum := uint64(h.Sum32())
	np := uint64(numPartitions)
	return int(sum % np) // #nosec G115 - modulo ensures result fits in int.
}

// Partition splits a stream into multiple sub-streams based on a
// partition key. Results with the same key are guaranteed to go to the
// same partition, preserving order within each partition while enabling
// parallel processing. Error Results are keyed by their carried item, so
// a value's failures land in the same partition as its successes.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Partition[T any] struct {
	name          string
	keyFunc       func(T) string
	partitioner   Partitioner
	numPartitions int
	bufferSize    int

	itemCounts []atomic.Int64
	totalItems atomic.Int64
}

// NewPartition creates a processor that partitions Results based on a key
// function. The keyFunc extracts a partition key from each item; items
// with the same key always route to the same partition.
//
// Default configuration:
//   - Partitions: 4
//   - Partitioner: Consistent hashing
//   - Buffer size: 0 (unbuffered channels)
//   - Name: "partition"
//
// Example:
//
//	// Partition orders by customer for parallel processing.
//	partitioner := tempoz.NewPartition[Order](func(o Order) string {
//		return o.CustomerID
//	}).WithPartitions(10)
//
//	partitions := partitioner.Process(ctx, orders)
//
//	var wg sync.WaitGroup
//	for i, partition := range partitions.Partitions {
//		wg.Add(1)
//		go func(idx int, p <-chan tempoz.Result[Order]) {
//			defer wg.Done()
//			processPartition(ctx, idx, p)
//		}(i, partition)
//	}
//	wg.Wait()
//
// Parameters:
//   - keyFunc: Function to extract partition key from items
//
// Returns a new Partition processor with fluent configuration methods.
func NewPartition[T any](keyFunc func(T) string) *Partition[T] {
	return &Partition[T]{
		keyFunc:       keyFunc,
		partitioner:   DefaultPartitioner,
		numPartitions: 4,
		name:          "partition",
	}
}

// WithPartitions sets the number of partitions to create.
func (p *Partition[T]) WithPartitions(n int) *Partition[T] {
	if n < 1 {
		n = 1
	}
	p.numPartitions = n
	return p
}

// WithPartitioner sets a custom partitioning function. The function
// receives the key and number of partitions and returns a partition index
// in [0, numPartitions).
func (p *Partition[T]) WithPartitioner(partitioner Partitioner) *Partition[T] {
	if partitioner != nil {
		p.partitioner = partitioner
	}
	return p
}

// WithBufferSize sets the buffer size for each partition channel.
func (p *Partition[T]) WithBufferSize(size int) *Partition[T] {
	if size < 0 {
		size = 0
	}
	p.bufferSize = size
	return p
}

// WithName sets a custom name for this processor.
// If not set, defaults to "partition".
func (p *Partition[T]) WithName(name string) *Partition[T] {
	p.name = name
	return p
}

// Process partitions the input stream into multiple output streams.
// All outputs close when the input closes or the context is canceled.
func (p *Partition[T]) Process(ctx context.Context, in <-chan Result[T]) PartitionOutput[T] {
	p.itemCounts = make([]atomic.Int64, p.numPartitions)

	outputs := make([]chan Result[T], p.numPartitions)
	partitions := make([]<-chan Result[T], p.numPartitions)

	for i := 0; i < p.numPartitions; i++ {
		outputs[i] = make(chan Result[T], p.bufferSize)
		partitions[i] = outputs[i]
	}

	go func() {
		defer func() {
			for _, ch := range outputs {
				close(ch)
			}
		}()

		for {
			select {
			case item, ok := <-in:
				if !ok {
					return
				}

				p.totalItems.Add(1)

				var key string
				if item.IsError() {
					key = p.keyFunc(item.Error().Item)
				} else {
					key = p.keyFunc(item.Value())
				}

				idx := p.partitioner(key, p.numPartitions)
				if idx < 0 || idx >= p.numPartitions {
					idx = 0
				}

				p.itemCounts[idx].Add(1)

				select {
				case outputs[idx] <- item:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return PartitionOutput[T]{
		Partitions: partitions,
	}
}

// GetStats returns statistics about partition distribution.
func (p *Partition[T]) GetStats() PartitionStats {
	stats := PartitionStats{
		TotalItems:        p.totalItems.Load(),
		NumPartitions:     p.numPartitions,
		ItemsPerPartition: make([]int64, p.numPartitions),
	}

	// itemCounts is allocated by Process; before the first call there is
	// nothing to report.
	for i := 0; i < len(p.itemCounts) && i < len(stats.ItemsPerPartition); i++ {
		stats.ItemsPerPartition[i] = p.itemCounts[i].Load()
	}

	return stats
}

// Name returns the processor name for debugging and monitoring.
func (p *Partition[T]) Name() string {
	return p.name
}

// PartitionStats contains statistics about partition distribution.
type PartitionStats struct { //nolint:govet // fieldalignment: struct layout optimized for readability
	TotalItems        int64   // Total items processed
	NumPartitions     int     // Number of partitions
	ItemsPerPartition []int64 // Items routed to each partition
}

// DistributionBalance returns a measure of how evenly distributed items
// are. Returns 0.0 for perfect distribution; higher values indicate
// imbalance.
func (s PartitionStats) DistributionBalance() float64 {
	if s.TotalItems == 0 || s.NumPartitions == 0 {
		return 0.0
	}

	idealPerPartition := float64(s.TotalItems) / float64(s.NumPartitions)
	var totalDeviation float64

	for _, count := range s.ItemsPerPartition {
		deviation := float64(count) - idealPerPartition
		totalDeviation += deviation * deviation
	}

	variance := totalDeviation / float64(s.NumPartitions)
	return variance / idealPerPartition
}

// String returns a string representation of the statistics.
func (s PartitionStats) String() string {
	return fmt.Sprintf("PartitionStats{Total: %d, Partitions: %d, Balance: %.2f}",
		s.TotalItems, s.NumPartitions, s.DistributionBalance())
}
