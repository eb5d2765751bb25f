package doublejump

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type fakeTarget struct {
	id    uuid.UUID
	mode  world.GameMode
	world string
	pos   mgl64.Vec3
	gone  bool
}

func newTarget() *fakeTarget {
	return &fakeTarget{id: uuid.New(), mode: world.GameModeSurvival, world: "World"}
}

func (f *fakeTarget) UUID() uuid.UUID          { return f.id }
func (f *fakeTarget) GameMode() world.GameMode { return f.mode }
func (f *fakeTarget) World() string            { return f.world }
func (f *fakeTarget) Position() mgl64.Vec3     { return f.pos }
func (f *fakeTarget) Connected() bool          { return !f.gone }

type fakePerms map[uuid.UUID][]string

func (f fakePerms) HasPermission(id uuid.UUID, permission string) bool {
	for _, p := range f[id] {
		if p == permission {
			return true
		}
	}
	return false
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeTask struct {
	delay  time.Duration
	handle *TaskHandle
}

// fakeScheduler queues delayed callbacks until Fire and runs async ones
// inline.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []fakeTask
}

func (s *fakeScheduler) RunAfter(fn func(), delay time.Duration) *TaskHandle {
	h := &TaskHandle{task: &scheduledTask{fn: fn}}
	s.mu.Lock()
	s.tasks = append(s.tasks, fakeTask{delay: delay, handle: h})
	s.mu.Unlock()
	return h
}

func (s *fakeScheduler) RunAsync(fn func()) { fn() }

// Fire runs every queued callback that was not cancelled and returns how
// many ran.
func (s *fakeScheduler) Fire() int {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	n := 0
	for _, t := range tasks {
		if t.handle.task.cancelled.Load() {
			continue
		}
		t.handle.task.fn()
		n++
	}
	return n
}

func (s *fakeScheduler) Queued() []fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fakeTask(nil), s.tasks...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig is a limited configuration without a use permission.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.UsePermission = ""
	cfg.Limits = Limits{Enabled: true, Default: 2}
	cfg.Cooldown = 3 * time.Second
	cfg.Regeneration = 10 * time.Second
	return cfg
}

type testManager struct {
	*Manager
	clock *fakeClock
	sched *fakeScheduler
}

func newTestManager(t *testing.T, cfg Config, configure ...func(b *Builder)) testManager {
	t.Helper()

	clock := newClock()
	sched := &fakeScheduler{}
	b := NewBuilder(cfg).
		Clock(clock.Now).
		Scheduler(sched).
		Logger(discardLogger()).
		ManualRegeneration()
	for _, fn := range configure {
		fn(b)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("build manager: %v", err)
	}
	t.Cleanup(m.Shutdown)
	return testManager{Manager: m, clock: clock, sched: sched}
}
