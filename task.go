package doublejump

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler runs callbacks later or in the background.
// TaskScheduler is the default implementation; hosts with their own task
// system may provide another.
type Scheduler interface {
	// RunAfter runs fn once after delay. The returned handle may be nil if
	// the scheduler is stopped. fn may run before RunAfter returns.
	RunAfter(fn func(), delay time.Duration) *TaskHandle

	// RunAsync runs fn in the background as soon as possible.
	RunAsync(fn func())
}

// scheduledTask represents a callback scheduled for future execution.
type scheduledTask struct {
	// executeAt is the time the task should execute
	executeAt time.Time

	// fn is the callback
	fn func()

	// cancelled indicates if the task has been cancelled
	cancelled atomic.Bool

	// index is the heap index
	index int
}

// taskQueue is a priority queue for scheduled tasks.
// It uses a binary heap for O(log n) insertion and removal.
type taskQueue struct {
	mu    sync.Mutex
	heap  []*scheduledTask
	notif chan struct{}
}

// newTaskQueue creates a new task queue.
func newTaskQueue() *taskQueue {
	return &taskQueue{
		heap:  make([]*scheduledTask, 0, 64),
		notif: make(chan struct{}, 1),
	}
}

// compactHeap removes cancelled tasks from the heap and rebuilds the heap property.
func (q *taskQueue) compactHeap() {
	write := 0
	for read := 0; read < len(q.heap); read++ {
		if !q.heap[read].cancelled.Load() {
			q.heap[write] = q.heap[read]
			q.heap[write].index = write
			write++
		}
	}

	for i := write; i < len(q.heap); i++ {
		q.heap[i] = nil
	}
	q.heap = q.heap[:write]

	for i := len(q.heap)/2 - 1; i >= 0; i-- {
		q.down(i, len(q.heap))
	}
}

// Push adds a task to the queue and wakes the scheduler.
func (q *taskQueue) Push(task *scheduledTask) {
	q.mu.Lock()

	if len(q.heap) > 100 && len(q.heap)%100 == 0 {
		q.compactHeap()
	}

	task.index = len(q.heap)
	q.heap = append(q.heap, task)
	q.up(task.index)
	q.mu.Unlock()

	select {
	case q.notif <- struct{}{}:
	default:
	}
}

// PopDue removes and returns all tasks that are due (executeAt <= now).
func (q *taskQueue) PopDue(now time.Time) []*scheduledTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []*scheduledTask
	for len(q.heap) > 0 && !q.heap[0].executeAt.After(now) {
		task := q.pop()
		if !task.cancelled.Load() {
			due = append(due, task)
		}
	}
	return due
}

// Len returns the number of tasks in the queue.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Clear removes all tasks from the queue.
func (q *taskQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, task := range q.heap {
		task.cancelled.Store(true)
	}
	q.heap = q.heap[:0]
}

// Notify returns the notification channel.
func (q *taskQueue) Notify() <-chan struct{} {
	return q.notif
}

// pop removes and returns the minimum task. Caller must hold lock.
func (q *taskQueue) pop() *scheduledTask {
	n := len(q.heap) - 1
	q.swap(0, n)
	q.down(0, n)
	task := q.heap[n]
	q.heap[n] = nil // Allow GC
	q.heap = q.heap[:n]
	task.index = -1
	return task
}

// up moves task at index up the heap.
func (q *taskQueue) up(i int) {
	for {
		parent := (i - 1) / 2
		if parent == i || !q.heap[i].executeAt.Before(q.heap[parent].executeAt) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// down moves task at index down the heap.
func (q *taskQueue) down(i, n int) {
	for {
		left := 2*i + 1
		if left >= n || left < 0 {
			break
		}
		j := left
		if right := left + 1; right < n && q.heap[right].executeAt.Before(q.heap[left].executeAt) {
			j = right
		}
		if !q.heap[j].executeAt.Before(q.heap[i].executeAt) {
			break
		}
		q.swap(i, j)
		i = j
	}
}

// swap swaps two tasks in the heap.
func (q *taskQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.heap[i].index = i
	q.heap[j].index = j
}

// TaskHandle allows cancelling a scheduled task.
type TaskHandle struct {
	task *scheduledTask
}

// Cancel cancels the scheduled task. Cancelling a task that already ran is a no-op.
func (h *TaskHandle) Cancel() {
	if h != nil && h.task != nil {
		h.task.cancelled.Store(true)
	}
}

// TaskScheduler is a Scheduler backed by a heap of delayed callbacks and a
// single dispatch goroutine. Callbacks run on their own goroutines so a slow
// callback never delays the others.
type TaskScheduler struct {
	queue *taskQueue
	log   *slog.Logger

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup

	tickRate time.Duration
}

// NewTaskScheduler creates a stopped scheduler. Call Start before use.
func NewTaskScheduler(log *slog.Logger) *TaskScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskScheduler{
		queue:    newTaskQueue(),
		log:      log,
		tickRate: TickDuration,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins dispatching due tasks.
func (s *TaskScheduler) Start() {
	if s.running.Swap(true) {
		return // Already running
	}
	go s.tickLoop()
}

// Stop stops dispatching, drops pending tasks and waits for running
// callbacks to return.
func (s *TaskScheduler) Stop() {
	if !s.running.Swap(false) {
		return // Not running
	}

	close(s.stopCh)
	<-s.doneCh

	s.queue.Clear()
	s.wg.Wait()
}

// Pending returns the number of queued tasks, cancelled ones included.
func (s *TaskScheduler) Pending() int {
	return s.queue.Len()
}

// RunAfter schedules fn to run once after delay.
// Returns nil if the scheduler is not running.
func (s *TaskScheduler) RunAfter(fn func(), delay time.Duration) *TaskHandle {
	if fn == nil || !s.running.Load() {
		return nil
	}

	task := &scheduledTask{
		executeAt: time.Now().Add(delay),
		fn:        fn,
	}
	s.queue.Push(task)

	return &TaskHandle{task: task}
}

// RunAsync runs fn in the background immediately.
func (s *TaskScheduler) RunAsync(fn func()) {
	if fn == nil || !s.running.Load() {
		return
	}
	s.run(fn)
}

// tickLoop is the main dispatch loop.
func (s *TaskScheduler) tickLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return

		case now := <-ticker.C:
			s.processTasks(now)

		case <-s.queue.Notify():
			// Zero-delay tasks should not wait for the next tick
			s.processTasks(time.Now())
		}
	}
}

// processTasks runs all due tasks.
func (s *TaskScheduler) processTasks(now time.Time) {
	for _, task := range s.queue.PopDue(now) {
		s.run(task.fn)
	}
}

// run executes fn on its own goroutine with panic recovery.
func (s *TaskScheduler) run(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("doublejump: panic in scheduled task",
					"error", fmt.Errorf("%v", r),
					"stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
