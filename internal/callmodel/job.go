package callmodel

import "time"

// JobKind names the four pipeline job kinds dispatched onto the queues.
type JobKind string

const (
	JobTranscribe JobKind = "transcribe"
	JobClassify   JobKind = "classify"
	JobGenerate   JobKind = "generate"
	JobSynthesize JobKind = "synthesize"
)

// Priority labels a job's urgency. jobqueue does not apply it to
// dispatch order: jobs are ordered by queue, not by Priority.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// JobStatus is a Job's lifecycle status.
type JobStatus string

const (
	JobWaiting   JobStatus = "waiting"
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is one unit of work dispatched to a worker pool.
type Job struct {
	Kind       JobKind   `json:"kind"`
	CallID     string    `json:"call_id"`
	Payload    []byte    `json:"payload"`
	Priority   Priority  `json:"priority"`
	Attempt    int       `json:"attempt"`
	MaxAttempts int      `json:"max_attempts"`
	NotBefore  time.Time `json:"not_before,omitempty"`
}
