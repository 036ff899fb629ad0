// Package scheduler runs named periodic jobs from one timer loop.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gmocoin-bot/logging"
)

// Task is the body of a job. Tasks should hand work to the goroutine that
// owns the state they touch instead of mutating it directly.
type Task func(ctx context.Context)

type job struct {
	name     string
	interval time.Duration
	task     Task
	async    bool
	next     time.Time
	busy     atomic.Bool
}

// Scheduler fires due jobs on every tick.
type Scheduler struct {
	Tick   time.Duration
	Logger logging.LoggerInterface

	now   func() time.Time
	ticks <-chan time.Time

	mu   sync.Mutex
	jobs []*job
	wg   sync.WaitGroup
}

// New returns a scheduler ticking every tick (one second when zero).
func New(tick time.Duration, logger logging.LoggerInterface) *Scheduler {
	if tick <= 0 {
		tick = time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scheduler{Tick: tick, Logger: logger, now: time.Now}
}

// Every registers task to run each interval, first one interval after Run
// starts. The task runs on the scheduler loop.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.add(name, interval, task, false)
}

// EveryAsync is like Every but runs task on its own goroutine. A run is
// skipped while the previous one is still going.
func (s *Scheduler) EveryAsync(name string, interval time.Duration, task Task) {
	s.add(name, interval, task, true)
}

func (s *Scheduler) add(name string, interval time.Duration, task Task, async bool) {
	if interval <= 0 || task == nil {
		s.Logger.Warning("scheduler: ignoring job %q with interval %s", name, interval)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &job{name: name, interval: interval, task: task, async: async})
}

// Jobs lists the registered job names with their intervals.
func (s *Scheduler) Jobs() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Duration, len(s.jobs))
	for _, j := range s.jobs {
		out[j.name] = j.interval
	}
	return out
}

// Run blocks until ctx is done, then waits for running async jobs.
func (s *Scheduler) Run(ctx context.Context) {
	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(s.Tick)
		defer ticker.Stop()
		ticks = ticker.C
	}
	s.start(s.now())
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticks:
			s.runDue(ctx, now)
		}
	}
}

func (s *Scheduler) start(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		j.next = now.Add(j.interval)
	}
}

// runDue fires every job whose next time has come, in registration order.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*job
	for _, j := range s.jobs {
		if !now.Before(j.next) {
			due = append(due, j)
			j.next = j.next.Add(j.interval)
			if !j.next.After(now) {
				j.next = now.Add(j.interval)
			}
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		if ctx.Err() != nil {
			return
		}
		if !j.async {
			s.Logger.Debug("scheduler: %s", j.name)
			j.task(ctx)
			continue
		}
		if !j.busy.CompareAndSwap(false, true) {
			s.Logger.Debug("scheduler: %s still running, skipped", j.name)
			continue
		}
		s.wg.Add(1)
		go func(j *job) {
			defer s.wg.Done()
			defer j.busy.Store(false)
			j.task(ctx)
		}(j)
	}
}

// Names returns the job names sorted.
func (s *Scheduler) Names() []string {
	jobs := s.Jobs()
	out := make([]string, 0, len(jobs))
	for n := range jobs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
