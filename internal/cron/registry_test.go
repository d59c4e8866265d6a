package cron

import (
	"context"
	"testing"
)

type namedJob struct{ name string }

func (j namedJob) Name() string                { return j.name }
func (j namedJob) Run(_ context.Context) error { return nil }

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(namedJob{name: "a"}, nil, namedJob{name: "b"})
	registry.Register(nil)
	registry.Register(namedJob{name: "c"})

	jobs := registry.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if jobs[i].Name() != want {
			t.Fatalf("expected job %q at index %d, got %q", want, i, jobs[i].Name())
		}
	}
}
