package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

type fakeLock struct {
	locked   bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(_ context.Context) (bool, error) {
	f.acquires++
	return !f.locked, nil
}

func (f *fakeLock) Release(_ context.Context) error {
	f.releases++
	return nil
}

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(_ context.Context) error {
	j.runs++
	return j.err
}

func TestRunCycleExecutesAllJobs(t *testing.T) {
	first := &countingJob{name: "first"}
	second := &countingJob{name: "second", err: errors.New("boom")}
	third := &countingJob{name: "third"}
	lock := &fakeLock{}

	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(first, second, third),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	// A failing job does not stop the cycle.
	if first.runs != 1 || second.runs != 1 || third.runs != 1 {
		t.Fatalf("expected every job to run once, got %d/%d/%d", first.runs, second.runs, third.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &countingJob{name: "job"}
	lock := &fakeLock{locked: true}

	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d times", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("expected no release on skipped cycle, got %d", lock.releases)
	}
}
