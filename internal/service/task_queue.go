package service

import (
	"container/heap"
	"sync"

	"github.com/MKhiriev/go-agent-platform/models"
)

// queuedTask is one heap entry. seq breaks priority ties so that tasks with
// equal priority leave the queue in submission order.
type queuedTask struct {
	task models.Task
	seq  uint64
}

// taskHeap orders entries by ascending priority, then ascending sequence.
type taskHeap []queuedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority < h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(queuedTask)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// taskQueue is a bounded in-process priority queue. Push and Pop are safe
// for concurrent use; arrivals are signalled on a channel so consumers can
// block without polling.
type taskQueue struct {
	mu       sync.Mutex
	items    taskHeap
	seq      uint64
	capacity int

	arrived chan struct{}
}

func newTaskQueue(capacity int) *taskQueue {
	return &taskQueue{
		items:    make(taskHeap, 0, capacity),
		capacity: capacity,
		arrived:  make(chan struct{}, 1),
	}
}

// Push enqueues a task. Returns [ErrQueueFull] when the queue is at
// capacity.
func (q *taskQueue) Push(task models.Task) error {
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		return ErrQueueFull
	}

	heap.Push(&q.items, queuedTask{task: task, seq: q.seq})
	q.seq++
	q.mu.Unlock()

	select {
	case q.arrived <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes and returns the highest-priority task. The second return is
// false when the queue is empty.
func (q *taskQueue) Pop() (models.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return models.Task{}, false
	}

	entry := heap.Pop(&q.items).(queuedTask)
	return entry.task, true
}

// Len reports the number of queued tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Arrived returns the arrival signal channel. The channel carries at most
// one pending signal; consumers must drain the queue after each receive.
func (q *taskQueue) Arrived() <-chan struct{} {
	return q.arrived
}
