package cron

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Job is one maintenance task run by the in-process cron loop. Names label
// the job in logs and metrics and must be unique within a registry.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Periodic is implemented by jobs that should run less often than every
// tick.
type Periodic interface {
	Every() time.Duration
}

type entry struct {
	job   Job
	every time.Duration
	next  time.Time
}

// Registry holds jobs and tracks when each one is next due.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
	names   map[string]struct{}
}

// NewRegistry registers jobs in order, skipping nils. It panics on a
// duplicate name since that is a wiring mistake.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := registry.Register(job); err != nil {
			panic(err)
		}
	}
	return registry
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron job is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, dup := r.names[job.Name()]; dup {
		return fmt.Errorf("cron job %q registered twice", job.Name())
	}
	var every time.Duration
	if p, ok := job.(Periodic); ok {
		every = p.Every()
	}
	r.names[job.Name()] = struct{}{}
	r.entries = append(r.entries, &entry{job: job, every: every})
	return nil
}

// Jobs returns the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]Job, 0, len(r.entries))
	for _, e := range r.entries {
		jobs = append(jobs, e.job)
	}
	return jobs
}

// Due returns the jobs that should run at now and schedules their next run.
// Jobs without a period are due on every call; a periodic job is due on the
// first call and then once its period has elapsed.
func (r *Registry) Due(now time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Job
	for _, e := range r.entries {
		if e.every > 0 && !e.next.IsZero() && now.Before(e.next) {
			continue
		}
		if e.every > 0 {
			e.next = now.Add(e.every)
		}
		due = append(due, e.job)
	}
	return due
}
