package common

import (
	"sync"
)

// QueueProcessor is a function that processes a batch of items from the queue.
type QueueProcessor[V any] func(items []V)

// QueueHandler hands queued items to the processor in batches on a background
// goroutine. Items are processed in the order they were added.
type QueueHandler[V any] struct {
	mu        sync.Mutex
	queue     []V
	processor QueueProcessor[V]
	chunkSize int
	closed    bool
	wake      chan struct{}
	done      chan struct{}
}

func NewQueueHandler[V any](processor QueueProcessor[V], chunkSize int) *QueueHandler[V] {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	q := &QueueHandler[V]{
		queue:     make([]V, 0),
		processor: processor,
		chunkSize: chunkSize,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go q.processQueue()
	return q
}

// Add queues items, it returns false once the handler is closed.
func (h *QueueHandler[V]) Add(item ...V) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.queue = append(h.queue, item...)
	h.mu.Unlock()
	h.signal()
	return true
}

func (h *QueueHandler[V]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

func (h *QueueHandler[V]) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting items and waits until the queue is drained.
func (h *QueueHandler[V]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.closed = true
	h.mu.Unlock()
	h.signal()
	<-h.done
}

func (h *QueueHandler[V]) processQueue() {
	defer close(h.done)
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			closed := h.closed
			h.mu.Unlock()
			if closed {
				return
			}
			<-h.wake
			continue
		}

		items := h.queue[:min(h.chunkSize, len(h.queue))]
		h.queue = h.queue[len(items):]
		h.mu.Unlock()

		h.processor(items)
	}
}
