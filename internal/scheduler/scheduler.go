// Package scheduler runs tasks one at a time on a single worker goroutine.
// Every piece of server state that is not guarded by a lock is only touched
// from inside a task.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
)

var ErrStopped = errors.New("scheduler stopped")

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue chan Task
	log       commonlog.Logger

	mu      sync.RWMutex
	stopped bool
	started sync.Once
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		log:       commonlog.GetLogger("liblinker.scheduler"),
		done:      make(chan struct{}),
	}
}

// RunScheduler starts the worker. Calling it more than once has no effect.
func (s *Scheduler) RunScheduler() {
	s.started.Do(func() {
		go func() {
			defer close(s.done)
			for task := range s.taskQueue {
				commonlog.CallAndLogError(func() error { return s.execute(task) }, task.Name, s.log)
				s.wg.Done()
			}
		}()
	})
}

func (s *Scheduler) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	s.log.Debugf("executing %s", task.Name)
	return task.Execute()
}

// Schedule queues task and returns without waiting for it. It blocks while
// the queue is full, so it must not be called from inside a task.
func (s *Scheduler) Schedule(task Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrStopped
	}
	s.wg.Add(1)
	s.taskQueue <- task
	return nil
}

// Run queues task and waits for its result.
func (s *Scheduler) Run(task Task) error {
	result := make(chan error, 1)
	err := s.Schedule(Task{
		Name: task.Name,
		Execute: func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				result <- err
			}()
			return task.Execute()
		},
	})
	if err != nil {
		return err
	}
	return <-result
}

// StopScheduler rejects new tasks, waits for the queued ones to finish and
// stops the worker.
func (s *Scheduler) StopScheduler() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.taskQueue)
	s.mu.Unlock()

	s.log.Info("stopping scheduler")
	s.RunScheduler()
	s.wg.Wait()
	<-s.done
}
