package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"go.uber.org/multierr"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	first := &testJob{name: "fail-a", err: errors.New("boom")}
	second := &testJob{name: "success"}
	third := &testJob{name: "fail-b", err: errors.New("bang")}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(first, second, third),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.runCycle(context.Background())
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 job errors, got %d (%v)", got, err)
	}
	for _, job := range []*testJob{first, second, third} {
		if job.runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.name, job.runs)
		}
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "once"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the initial cycle to run, ran %d", job.runs)
	}
}

type slowJob struct {
	testJob
}

func (s *slowJob) Every() time.Duration { return 10 * time.Minute }

func TestServiceRunCycleSkipsJobsNotYetDue(t *testing.T) {
	now := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	fast := &testJob{name: "ratelimit-sweep"}
	slow := &slowJob{testJob{name: "order-backlog"}}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(fast, slow),
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := service.runCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		now = now.Add(time.Minute)
	}
	if fast.runs != 3 || slow.runs != 1 {
		t.Fatalf("expected fast=3 slow=1, got fast=%d slow=%d", fast.runs, slow.runs)
	}

	now = now.Add(10 * time.Minute)
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("late cycle: %v", err)
	}
	if slow.runs != 2 {
		t.Fatalf("expected slow job to run again once due, ran %d", slow.runs)
	}
}

func TestNewServiceRequiresLogger(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without logger")
	}
}

type panicJob struct{}

func (panicJob) Name() string { return "explodes" }

func (panicJob) Run(context.Context) error { panic("nil map write") }

func TestServiceRunCycleRecoversPanickingJob(t *testing.T) {
	after := &testJob{name: "after"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(panicJob{}, after),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.runCycle(context.Background())
	if err == nil || !strings.Contains(err.Error(), "explodes: job panicked: nil map write") {
		t.Fatalf("expected panic reported as error, got %v", err)
	}
	if after.runs != 1 {
		t.Fatalf("expected later job to run, ran %d", after.runs)
	}
}
