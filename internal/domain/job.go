package domain

import "time"

// JobKind enumerates supported generation job categories.
type JobKind string

const (
	JobKindAnalysis JobKind = "analysis"
	JobKindPrompt   JobKind = "text_prompt"
	JobKindImage    JobKind = "image_synthesis"
	JobKindVideo    JobKind = "video_synthesis"
	JobKindBulk     JobKind = "bulk_variation"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one in-flight or settled generation unit. A job transitions
// exactly once from pending to in_progress and exactly once from in_progress
// to a terminal state; terminal states are never revisited.
type Job struct {
	ID           string
	Kind         JobKind
	Status       JobStatus
	ArtifactURI  string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Start moves a pending job to in_progress. Calls on a non-pending job are
// ignored so a settled slot cannot regress.
func (j *Job) Start(now time.Time) {
	if j.Status != JobStatusPending {
		return
	}
	j.Status = JobStatusInProgress
	j.UpdatedAt = now
}

// Complete settles the job with its artifact reference.
func (j *Job) Complete(uri string, now time.Time) {
	if j.Status.Terminal() {
		return
	}
	j.Status = JobStatusCompleted
	j.ArtifactURI = uri
	j.UpdatedAt = now
}

// Fail settles the job with an error detail.
func (j *Job) Fail(reason string, now time.Time) {
	if j.Status.Terminal() {
		return
	}
	j.Status = JobStatusFailed
	j.ErrorMessage = reason
	j.UpdatedAt = now
}
