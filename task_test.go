package doublejump

import (
	"sync/atomic"
	"testing"
	"time"
)

func newRunningScheduler(t *testing.T) *TaskScheduler {
	t.Helper()
	s := NewTaskScheduler(discardLogger())
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestTaskSchedulerRunAfter(t *testing.T) {
	s := newRunningScheduler(t)

	done := make(chan time.Time, 1)
	start := time.Now()
	if s.RunAfter(func() { done <- time.Now() }, 30*time.Millisecond) == nil {
		t.Fatalf("expected a handle from a running scheduler")
	}

	select {
	case at := <-done:
		if at.Sub(start) < 30*time.Millisecond {
			t.Fatalf("task ran after %v, want at least 30ms", at.Sub(start))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for task")
	}
}

func TestTaskSchedulerRunsInOrder(t *testing.T) {
	s := newRunningScheduler(t)

	order := make(chan int, 3)
	s.RunAfter(func() { order <- 3 }, 400*time.Millisecond)
	s.RunAfter(func() { order <- 1 }, 10*time.Millisecond)
	s.RunAfter(func() { order <- 2 }, 200*time.Millisecond)

	for want := 1; want <= 3; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("task %d ran at position %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for task %d", want)
		}
	}
}

func TestTaskHandleCancel(t *testing.T) {
	s := newRunningScheduler(t)

	var ran atomic.Bool
	h := s.RunAfter(func() { ran.Store(true) }, 20*time.Millisecond)
	h.Cancel()

	time.Sleep(100 * time.Millisecond)
	if ran.Load() {
		t.Fatalf("cancelled task ran")
	}

	// Cancelling nil or finished handles is a no-op
	var nilHandle *TaskHandle
	nilHandle.Cancel()
	h.Cancel()
}

func TestTaskSchedulerRunAsync(t *testing.T) {
	s := newRunningScheduler(t)

	done := make(chan struct{})
	s.RunAsync(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for async task")
	}
}

func TestTaskSchedulerRecoversPanics(t *testing.T) {
	s := newRunningScheduler(t)

	s.RunAsync(func() { panic("boom") })

	done := make(chan struct{})
	s.RunAfter(func() { close(done) }, 0)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler stopped after a panicking task")
	}
}

func TestTaskSchedulerStopDropsPending(t *testing.T) {
	s := NewTaskScheduler(discardLogger())
	if s.RunAfter(func() {}, 0) != nil {
		t.Fatalf("stopped scheduler should not accept tasks")
	}

	s.Start()
	var ran atomic.Bool
	s.RunAfter(func() { ran.Store(true) }, time.Hour)
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}

	s.Stop()
	s.Stop()
	if s.Pending() != 0 || ran.Load() {
		t.Fatalf("stop should drop pending tasks")
	}
	if s.RunAfter(func() {}, 0) != nil {
		t.Fatalf("scheduler should refuse tasks after stop")
	}
}

func TestTaskQueueCompaction(t *testing.T) {
	q := newTaskQueue()
	now := time.Now()

	var handles []*TaskHandle
	for i := range 250 {
		task := &scheduledTask{executeAt: now.Add(time.Duration(i) * time.Millisecond), fn: func() {}}
		q.Push(task)
		handles = append(handles, &TaskHandle{task: task})
	}
	for _, h := range handles[:200] {
		h.Cancel()
	}

	due := q.PopDue(now.Add(time.Hour))
	if len(due) != 50 {
		t.Fatalf("due = %d, want 50", len(due))
	}
	for i := 1; i < len(due); i++ {
		if due[i].executeAt.Before(due[i-1].executeAt) {
			t.Fatalf("tasks popped out of order")
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue len = %d, want 0", q.Len())
	}
}
