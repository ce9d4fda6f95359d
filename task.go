package pipeline

import (
	"container/heap"
	"sync"
	"time"
)

// DefaultPriority is the priority assigned by Push. Lower values take
// higher priority.
const DefaultPriority = 100

// Task is a single unit of work submitted to a queue.
//
// The payload is opaque to the framework and is interpreted only by
// the TaskHandler that processes it. A task is immutable once queued:
// it is owned by the queue until popped and by the popping worker
// afterwards.
type Task struct {
	Payload  any
	Priority int

	// seq is assigned at submission and breaks priority ties so that
	// equal-priority tasks pop in FIFO order.
	seq uint64
}

// taskHeap is a min-heap ordered by (priority, seq).
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// QueueStatus is a consistent snapshot of a queue's counters.
type QueueStatus struct {
	// Count is the number of tasks currently queued.
	Count int

	// TotalCount is the number of tasks ever pushed.
	TotalCount int64

	// PeakCount is the largest Count ever observed.
	PeakCount int
}

// TaskQueue is a thread-safe priority queue of tasks.
//
// Tasks pop in ascending (priority, submission order). Pop blocks up
// to a timeout waiting for work; Push blocks only when the queue was
// constructed with a maximum size and is full. Multiple producers and
// consumers may use the queue concurrently; a task is delivered to
// exactly one consumer.
type TaskQueue struct {
	mu      sync.Mutex
	heap    taskHeap
	maxSize int
	seq     uint64
	closed  bool

	totalCount int64
	peakCount  int

	// wake is closed and replaced whenever a task arrives; space is
	// closed and replaced whenever a task leaves a bounded queue.
	// Waiters grab the current channel under the lock and select on
	// it unlocked, so a broadcast never deadlocks against the mutex.
	wake  chan struct{}
	space chan struct{}
}

// NewTaskQueue creates an empty queue. maxSize bounds the number of
// queued tasks; 0 means unbounded.
func NewTaskQueue(maxSize int) *TaskQueue {
	if maxSize < 0 {
		maxSize = 0
	}
	return &TaskQueue{
		maxSize: maxSize,
		wake:    make(chan struct{}),
		space:   make(chan struct{}),
	}
}

// Push submits a payload at DefaultPriority.
func (q *TaskQueue) Push(payload any) error {
	return q.PushPriority(payload, DefaultPriority)
}

// PushPriority submits a payload with an explicit priority. Lower
// values pop first. On a bounded queue the call blocks until space
// frees or the queue is closed; otherwise it never blocks.
func (q *TaskQueue) PushPriority(payload any, priority int) error {
	q.mu.Lock()
	for {
		if q.closed {
			q.mu.Unlock()
			return ErrQueueClosed
		}
		if q.maxSize <= 0 || len(q.heap) < q.maxSize {
			break
		}
		space := q.space
		q.mu.Unlock()
		<-space
		q.mu.Lock()
	}

	q.seq++
	heap.Push(&q.heap, &Task{Payload: payload, Priority: priority, seq: q.seq})
	q.totalCount++
	if len(q.heap) > q.peakCount {
		q.peakCount = len(q.heap)
	}

	close(q.wake)
	q.wake = make(chan struct{})
	q.mu.Unlock()
	return nil
}

// Pop removes and returns the task with the smallest (priority,
// submission order). With a positive timeout the call waits up to
// that long for a task to arrive; otherwise it returns immediately.
// The second result is false when no task was available before the
// timeout or the queue was closed while empty. A closed queue keeps
// serving its remaining tasks.
func (q *TaskQueue) Pop(timeout time.Duration) (*Task, bool) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	q.mu.Lock()
	for len(q.heap) == 0 {
		if q.closed || timeout <= 0 {
			q.mu.Unlock()
			return nil, false
		}
		wake := q.wake
		q.mu.Unlock()
		select {
		case <-wake:
		case <-expired:
			return nil, false
		}
		q.mu.Lock()
	}

	t := heap.Pop(&q.heap).(*Task)
	if q.maxSize > 0 {
		close(q.space)
		q.space = make(chan struct{})
	}
	q.mu.Unlock()
	return t, true
}

// Len returns the number of tasks currently queued.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Status returns a snapshot of the queue counters taken under a
// single lock acquisition.
func (q *TaskQueue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStatus{
		Count:      len(q.heap),
		TotalCount: q.totalCount,
		PeakCount:  q.peakCount,
	}
}

// Close marks the queue as closed and wakes every blocked producer
// and consumer. Subsequent pushes fail with ErrQueueClosed; pops keep
// draining the remaining tasks. Close is idempotent.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.wake)
		q.wake = make(chan struct{})
		close(q.space)
		q.space = make(chan struct{})
	}
	q.mu.Unlock()
}
