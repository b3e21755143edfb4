package core

import (
	"context"
	"encoding/json"
	"time"
)

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Job is the persisted record of a submitted operation.
type Job struct {
	ID         string          `json:"jobId"`
	Operation  string          `json:"operation"`
	Status     JobStatus       `json:"status"`
	Progress   int             `json:"progress"` // 0-100
	Message    string          `json:"message,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
	Inputs     []string        `json:"inputs,omitempty"` // staged upload ids, in submission order
	OutputPath string          `json:"-"`
	OutputName string          `json:"outputName,omitempty"`
	Error      string          `json:"error,omitempty"`
	ClientIP   string          `json:"-"`
	UserAgent  string          `json:"-"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// JobProgress is a point-in-time view of a job, broadcast to subscribers.
type JobProgress struct {
	JobID      string    `json:"jobId"`
	Operation  string    `json:"operation"`
	Status     JobStatus `json:"status"`
	Step       string    `json:"step,omitempty"`
	StepsDone  int       `json:"stepsDone"`
	StepsTotal int       `json:"stepsTotal"`
	Error      string    `json:"error,omitempty"`
}

// Percent returns the completion percentage (0-100).
func (p JobProgress) Percent() float64 {
	if p.Status == StatusSucceeded {
		return 100
	}
	if p.StepsTotal > 0 {
		return float64(p.StepsDone) / float64(p.StepsTotal) * 100
	}
	return 0
}

// JobResult contains the final outcome of a completed job.
type JobResult struct {
	JobID      string    `json:"jobId"`
	Operation  string    `json:"operation"`
	Status     JobStatus `json:"status"`
	OutputName string    `json:"outputName,omitempty"`
	OutputPath string    `json:"-"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
}

// ProgressFunc receives step-level progress from a running operation.
type ProgressFunc func(step string, done, total int)

// OperationInfo describes a registered operation for listings.
type OperationInfo struct {
	Key         string   `json:"key"`
	Group       string   `json:"group"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	MinInputs   int      `json:"minInputs"`
	MaxInputs   int      `json:"maxInputs,omitempty"`  // 0 means unbounded
	Extensions  []string `json:"extensions,omitempty"` // accepted input extensions; empty means any supported type
}

// RunEnv carries everything an operation needs to execute one job.
type RunEnv struct {
	JobID         string
	InputPaths    []string // staged input files, in submission order
	InputNames    []string // original file names, same order
	Params        json.RawMessage
	ArtifactsDir  string
	MaxResultRows int
	Progress      ProgressFunc
}

// Report forwards step progress to the job's subscribers.
// Safe to call when no progress sink is attached.
func (env RunEnv) Report(step string, done, total int) {
	if env.Progress != nil {
		env.Progress(step, done, total)
	}
}

// OperationDefinition contains everything needed to execute one kind of job.
type OperationDefinition struct {
	Info OperationInfo

	// Run executes the operation and writes its artifact under
	// env.ArtifactsDir. It must honor ctx cancellation.
	Run func(ctx context.Context, env RunEnv) (RunResult, error)
}

// Accepts reports whether the operation takes files with the given
// extension. An empty Extensions list accepts any supported type.
func (d OperationDefinition) Accepts(ext string) bool {
	if len(d.Info.Extensions) == 0 {
		return true
	}
	for _, e := range d.Info.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// RunResult identifies the artifact produced by a successful run.
type RunResult struct {
	OutputPath string // absolute path under the artifacts directory
	OutputName string // user-facing download name
}
