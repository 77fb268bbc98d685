package queue

import (
	"sync"
	"time"
)

// Notification is an overdue notice or due-date reminder waiting to be
// delivered to the notification webhook.
type Notification struct {
	ID         string
	UserID     uint
	BookID     uint
	Kind       string
	Message    string
	DueDate    time.Time
	RetryAt    time.Time
	RetryCount int
	MaxRetries int
}

type Queue struct {
	items []*Notification
	mu    sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		items: make([]*Notification, 0),
	}
}

func (q *Queue) Enqueue(n *Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

// Dequeue removes and returns the first notification whose RetryAt has
// passed, nil when none is ready.
func (q *Queue) Dequeue() *Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for i, n := range q.items {
		if n.RetryAt.Before(now) || n.RetryAt.Equal(now) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return n
		}
	}
	return nil
}

func (q *Queue) Peek() *Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, n := range q.items {
		if n.RetryAt.Before(now) || n.RetryAt.Equal(now) {
			return n
		}
	}
	return nil
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) GetAll() []*Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]*Notification, len(q.items))
	copy(result, q.items)
	return result
}
