/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package queue implements the minion's pending queue: containers that
// have cleared their dependency check and are waiting for an admission
// slot. Order is FIFO by entry time, tie-broken by container identity
// so that admission order is deterministic even under a frozen test
// clock.
package queue

import (
	"container/heap"
	"time"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

type item struct {
	key        types.ContainerKey
	enqueuedAt time.Time
	heapIndex  int
}

type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if !h[i].enqueuedAt.Equal(h[j].enqueuedAt) {
		return h[i].enqueuedAt.Before(h[j].enqueuedAt)
	}
	return h[i].key.String() < h[j].key.String()
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *itemHeap) Push(x interface{}) {
	it := x.(*item)
	it.heapIndex = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// PendingQueue holds containers eligible for admission. It is owned by
// the scheduler loop and is not safe for concurrent use.
type PendingQueue struct {
	heap  itemHeap
	items map[types.ContainerKey]*item
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{items: make(map[types.ContainerKey]*item)}
}

// Enqueue adds the container with the given entry time. Re-enqueueing a
// container already present is an internal defect; the call is ignored
// and reported via the return value.
func (q *PendingQueue) Enqueue(key types.ContainerKey, now time.Time) bool {
	if _, exists := q.items[key]; exists {
		return false
	}
	it := &item{key: key, enqueuedAt: now}
	q.items[key] = it
	heap.Push(&q.heap, it)
	return true
}

// Dequeue removes and returns the oldest container, or false if the
// queue is empty.
func (q *PendingQueue) Dequeue() (types.ContainerKey, bool) {
	if len(q.heap) == 0 {
		return types.ContainerKey{}, false
	}
	it := heap.Pop(&q.heap).(*item)
	delete(q.items, it.key)
	return it.key, true
}

// Remove drops the container from the queue if present, for pod
// deletion while pending.
func (q *PendingQueue) Remove(key types.ContainerKey) bool {
	it, exists := q.items[key]
	if !exists {
		return false
	}
	heap.Remove(&q.heap, it.heapIndex)
	delete(q.items, key)
	return true
}

// Has reports whether the container is queued.
func (q *PendingQueue) Has(key types.ContainerKey) bool {
	_, exists := q.items[key]
	return exists
}

// Len returns the queue depth.
func (q *PendingQueue) Len() int {
	return len(q.heap)
}
