// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch provides the "run later" primitive used to hand work from
// background goroutines to a single consumer loop.
//
// Producers call Post, which never blocks. One goroutine calls Run, which
// hands items to a deliver function strictly in the order they were posted,
// one at a time. The consumer is free to apply each item whenever it likes;
// nothing orders a delivery against the producer's next Post.
package dispatch

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO with non-blocking posts.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	closed  bool
	wake    chan struct{}
	posted  uint64
	drained uint64
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		wake: make(chan struct{}, 1),
	}
}

// Post enqueues an item. It reports false if the queue has been closed.
// Safe to call from any goroutine.
func (q *Queue[T]) Post(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.posted++
	q.mu.Unlock()

	q.signal()
	return true
}

// Close stops accepting new items. Items already queued are still delivered.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Stats returns how many items have been posted and delivered so far.
func (q *Queue[T]) Stats() (posted, delivered uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.posted, q.drained
}

// Run delivers items in FIFO order until the queue is closed and empty, or
// ctx is done. deliver is only ever called from the goroutine running Run.
func (q *Queue[T]) Run(ctx context.Context, deliver func(T)) {
	for {
		item, ok, closed := q.pop()
		if ok {
			deliver(item)
			q.mu.Lock()
			q.drained++
			q.mu.Unlock()
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if closed {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
	}
}

// Drain delivers every item currently queued on the calling goroutine and
// returns how many were delivered. Items posted during the drain are
// included.
func (q *Queue[T]) Drain(deliver func(T)) int {
	n := 0
	for {
		item, ok, _ := q.pop()
		if !ok {
			return n
		}
		deliver(item)
		n++
		q.mu.Lock()
		q.drained++
		q.mu.Unlock()
	}
}

func (q *Queue[T]) pop() (item T, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false, q.closed
	}
	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true, q.closed
}

func (q *Queue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
