// File: core/concurrency/ring.go
// Package concurrency implements the single-producer/single-consumer
// flyweight ring used to hand outbound frames to the writer goroutine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Elements are allocated once by a factory and reused for the lifetime of the
// queue. Head and tail are atomics on separate cache lines; publishing the
// tail is the only synchronization point between producer and consumer.

package concurrency

import (
	"sync/atomic"

	"github.com/momentics/hioload-wsc/api"
	"golang.org/x/sys/cpu"
)

// FlyweightQueue is a bounded SPSC ring of pre-allocated elements.
// Do not use multiple producers or multiple consumers.
type FlyweightQueue[E any] struct {
	elems []E
	_     cpu.CacheLinePad
	head  atomic.Uint64 // consumer-owned
	_     cpu.CacheLinePad
	tail  atomic.Uint64 // producer-owned
	_     cpu.CacheLinePad
}

// NewFlyweightQueue allocates capacity elements via factory. factory is called
// exactly capacity times.
func NewFlyweightQueue[E any](capacity int, factory func() E) *FlyweightQueue[E] {
	if capacity <= 0 {
		panic("concurrency: queue capacity must be positive")
	}
	q := &FlyweightQueue[E]{elems: make([]E, capacity)}
	for i := range q.elems {
		q.elems[i] = factory()
	}
	return q
}

// Enqueue fills the next free element and publishes it to the consumer.
// If fill returns an error the element stays free and the error is returned.
func (q *FlyweightQueue[E]) Enqueue(fill func(E) error) error {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.elems)) {
		return api.ErrQueueFull
	}
	if err := fill(q.elems[tail%uint64(len(q.elems))]); err != nil {
		return err
	}
	q.tail.Store(tail + 1)
	return nil
}

// Pop drains the oldest published element and releases it to the producer.
func (q *FlyweightQueue[E]) Pop(drain func(E)) error {
	head := q.head.Load()
	if head == q.tail.Load() {
		return api.ErrQueueEmpty
	}
	drain(q.elems[head%uint64(len(q.elems))])
	q.head.Store(head + 1)
	return nil
}

// Clear empties the queue without touching element contents. Only call it
// while neither side is active.
func (q *FlyweightQueue[E]) Clear() {
	q.head.Store(0)
	q.tail.Store(0)
}

// Len returns the number of published, undrained elements.
func (q *FlyweightQueue[E]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the fixed capacity.
func (q *FlyweightQueue[E]) Cap() int {
	return len(q.elems)
}

// IsEmpty reports whether nothing is queued.
func (q *FlyweightQueue[E]) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull reports whether every element is occupied.
func (q *FlyweightQueue[E]) IsFull() bool {
	return q.Len() >= len(q.elems)
}
