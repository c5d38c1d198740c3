package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Task is one background command. Nobody has to wait for it, but Wait
// and Cancel are there for callers that do.
type Task struct {
	ID   string
	Name string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Spawn runs fn on its own goroutine. A panic in fn fails the task.
func Spawn(ctx context.Context, name string, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		ID:     uuid.NewString(),
		Name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("%s: panic: %v", name, r)
			}
		}()
		t.err = fn(ctx)
		if t.err != nil {
			log.Printf("[%s] %s failed: %v", t.ID[:8], name, t.err)
		}
	}()
	return t
}

// Finished returns a task that has already ended with err.
func Finished(name string, err error) *Task {
	t := &Task{ID: uuid.NewString(), Name: name, cancel: func() {}, done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is nil until the task has finished.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) Cancel() {
	t.cancel()
}

// Registry remembers tasks by ID so their outcome can be queried later.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

func NewRegistry() *Registry {
	return &Registry{tasks: map[string]*Task{}}
}

// Spawn starts a task and registers it.
func (r *Registry) Spawn(ctx context.Context, name string, fn func(ctx context.Context) error) *Task {
	t := Spawn(ctx, name, fn)
	r.Add(t)
	r.Go(func() { <-t.Done() })
	return t
}

// Go runs fn on a goroutine that Wait accounts for.
func (r *Registry) Go(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

func (r *Registry) Add(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
}

func (r *Registry) Get(id string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Wait blocks until every task spawned through the registry has returned,
// including tasks spawned by those tasks.
func (r *Registry) Wait() {
	r.wg.Wait()
}
