package download

import (
	"sort"
	"sync"
)

// Queue is a deduplicating priority queue of download tasks. Producers add
// tasks before the manager drains it; both sides may touch it concurrently.
type Queue struct {
	mu     sync.Mutex
	tasks  []*Task
	seen   map[string]struct{}
	queued int
}

func NewQueue() *Queue {
	return &Queue{
		seen: make(map[string]struct{}),
	}
}

// Add enqueues a task. Returns false without enqueuing when a task with the
// same (url, filename) key was already added, even if it has since drained.
func (q *Queue) Add(t *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := t.key()
	if _, dup := q.seen[key]; dup {
		return false
	}
	q.seen[key] = struct{}{}

	q.tasks = append(q.tasks, t)
	sort.SliceStable(q.tasks, func(i, j int) bool {
		return q.tasks[i].Priority < q.tasks[j].Priority
	})

	q.queued++

	return true
}

// Pop removes the highest-priority task. ok is false when the queue is empty.
func (q *Queue) Pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]
	q.tasks = q.tasks[1:]

	return t, true
}

// Len is the number of tasks not yet popped.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

// Queued is the total number of distinct tasks ever accepted.
func (q *Queue) Queued() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.queued
}
