package domain

import (
	"time"
)

// RunStatus represents the overall status of an apply run
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusAborted RunStatus = "aborted"
)

// StepStatus represents the status of an individual workflow step
type StepStatus string

const (
	StepStatusPending     StepStatus = "pending"
	StepStatusRunning     StepStatus = "running"
	StepStatusCompleted   StepStatus = "completed"
	StepStatusSkipped     StepStatus = "skipped"
	StepStatusFailed      StepStatus = "failed"
	StepStatusCompensated StepStatus = "compensated"
)

// StepType identifies a state of the apply workflow
type StepType string

const (
	StepSafetyCheck    StepType = "safety_check"
	StepPredict        StepType = "predict"
	StepDuplicateCheck StepType = "duplicate_check"
	StepTag            StepType = "tag"
	StepPush           StepType = "push"
)

// RunState is the journal of one apply run
type RunState struct {
	SessionID    string       `json:"session_id"`
	StartedAt    time.Time    `json:"started_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	RepoPath     string       `json:"repo_path"`
	SourceBranch string       `json:"source_branch"`
	Pipeline     bool         `json:"pipeline"`
	Version      string       `json:"version,omitempty"`
	TagName      string       `json:"tag_name,omitempty"`
	Steps        []StepRecord `json:"steps"`
	Status       RunStatus    `json:"status"`
	ExitCode     int          `json:"exit_code"`
	Error        string       `json:"error,omitempty"`
}

// StepRecord represents a single step of the run
type StepRecord struct {
	Type        StepType       `json:"type"`
	Status      StepStatus     `json:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewRunState creates a new run state
func NewRunState(sessionID string) *RunState {
	now := time.Now()
	return &RunState{
		SessionID: sessionID,
		StartedAt: now,
		UpdatedAt: now,
		Steps:     []StepRecord{},
		Status:    RunStatusPending,
	}
}

// AddStep registers a pending step
func (rs *RunState) AddStep(stepType StepType) {
	rs.Steps = append(rs.Steps, StepRecord{Type: stepType, Status: StepStatusPending})
	rs.UpdatedAt = time.Now()
}

// Step returns the record for a step type, or nil
func (rs *RunState) Step(stepType StepType) *StepRecord {
	for i := range rs.Steps {
		if rs.Steps[i].Type == stepType {
			return &rs.Steps[i]
		}
	}
	return nil
}

// CompletedSteps returns completed steps in reverse order
func (rs *RunState) CompletedSteps() []StepRecord {
	var completed []StepRecord
	for i := len(rs.Steps) - 1; i >= 0; i-- {
		if rs.Steps[i].Status == StepStatusCompleted {
			completed = append(completed, rs.Steps[i])
		}
	}
	return completed
}

// MarkStarted marks a step as running
func (rs *RunState) MarkStarted(stepType StepType) {
	rs.transition(stepType, StepStatusPending, StepStatusRunning, func(s *StepRecord, now time.Time) {
		s.StartedAt = &now
	})
}

// MarkCompleted marks a running step as completed with its output data
func (rs *RunState) MarkCompleted(stepType StepType, data map[string]any) {
	rs.transition(stepType, StepStatusRunning, StepStatusCompleted, func(s *StepRecord, now time.Time) {
		s.CompletedAt = &now
		s.Data = data
	})
}

// MarkSkipped marks a pending step as skipped
func (rs *RunState) MarkSkipped(stepType StepType) {
	rs.transition(stepType, StepStatusPending, StepStatusSkipped, nil)
}

// MarkFailed marks a running step as failed and aborts the run
func (rs *RunState) MarkFailed(stepType StepType, err error) {
	rs.transition(stepType, StepStatusRunning, StepStatusFailed, func(s *StepRecord, now time.Time) {
		s.CompletedAt = &now
		s.Error = err.Error()
	})
	rs.Status = RunStatusAborted
	rs.Error = err.Error()
}

// MarkCompensated marks a completed step as undone
func (rs *RunState) MarkCompensated(stepType StepType) {
	rs.transition(stepType, StepStatusCompleted, StepStatusCompensated, nil)
}

func (rs *RunState) transition(stepType StepType, from, to StepStatus, update func(*StepRecord, time.Time)) {
	now := time.Now()
	for i := range rs.Steps {
		if rs.Steps[i].Type == stepType && rs.Steps[i].Status == from {
			rs.Steps[i].Status = to
			if update != nil {
				update(&rs.Steps[i], now)
			}
			rs.UpdatedAt = now
			return
		}
	}
}
