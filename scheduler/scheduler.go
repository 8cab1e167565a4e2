package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a periodic maintenance job. Returned errors are logged; the task
// keeps its schedule.
type Task func(ctx context.Context) error

// Scheduler runs named tasks on fixed intervals until stopped.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]context.CancelFunc
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Scheduler. Each run of a task is bounded by runTimeout
// (zero means one minute).
func New(logger *zap.Logger, runTimeout time.Duration) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:   make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
		timeout: runTimeout,
		logger:  logger,
	}
}

// Every registers task to run each interval. A task with the same name is replaced.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, ok := s.tasks[name]; ok {
		stop()
	}
	taskCtx, stop := context.WithCancel(s.ctx)
	s.tasks[name] = stop

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(taskCtx, name, task)
			case <-taskCtx.Done():
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

func (s *Scheduler) run(ctx context.Context, name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked", zap.String("task", name), zap.Any("recover", r))
		}
	}()
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	if err := task(runCtx); err != nil {
		s.logger.Error("scheduler task failed", zap.String("task", name), zap.Error(err))
		return
	}
	s.logger.Debug("scheduler task done", zap.String("task", name), zap.Duration("took", time.Since(start)))
}

// Remove stops a task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.tasks[name]; ok {
		stop()
		delete(s.tasks, name)
	}
}

// Stop cancels all tasks and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Names returns the registered task names, sorted.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
