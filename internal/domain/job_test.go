package domain

import (
	"testing"
	"time"
)

func TestJobLifecycleHappyPath(t *testing.T) {
	now := time.Now()
	job := Job{ID: "j1", Kind: JobKindImage, Status: JobStatusPending}

	job.Start(now)
	if job.Status != JobStatusInProgress {
		t.Fatalf("status = %s, want in_progress", job.Status)
	}

	job.Complete("uri://artifact", now.Add(time.Second))
	if job.Status != JobStatusCompleted || job.ArtifactURI != "uri://artifact" {
		t.Fatalf("job = %+v, want completed with artifact", job)
	}
}

func TestJobTerminalStatesNeverRevisited(t *testing.T) {
	now := time.Now()

	job := Job{Status: JobStatusPending}
	job.Start(now)
	job.Fail("backend rejected", now)

	job.Complete("uri://late", now)
	if job.Status != JobStatusFailed || job.ArtifactURI != "" {
		t.Fatalf("failed job mutated by late Complete: %+v", job)
	}

	job.Start(now)
	if job.Status != JobStatusFailed {
		t.Fatalf("failed job restarted: %+v", job)
	}
}

func TestJobStartRequiresPending(t *testing.T) {
	job := Job{Status: JobStatusInProgress}
	job.Start(time.Now())
	if job.Status != JobStatusInProgress {
		t.Fatalf("Start on in_progress job changed status to %s", job.Status)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	cases := map[JobStatus]bool{
		JobStatusPending:    false,
		JobStatusInProgress: false,
		JobStatusCompleted:  true,
		JobStatusFailed:     true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Fatalf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}
