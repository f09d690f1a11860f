package model

import "time"

// RunStatus represents the current state of a species run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusResolving RunStatus = "resolving"
	RunStatusRunningQC RunStatus = "running_qc"
	RunStatusParsing   RunStatus = "parsing"
	RunStatusThermo    RunStatus = "thermo"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a single pipeline run for a species.
type Run struct {
	ID         string     `json:"id"`
	Identifier string     `json:"identifier"`
	Name       string     `json:"name,omitempty"`
	Status     RunStatus  `json:"status"`
	Result     *RunResult `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Name        string        `json:"name,omitempty"`
	Message     string        `json:"message"`
	Phases      []PhaseResult `json:"phases"`
	OutputFiles []string      `json:"output_files,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RunPhase represents a stage within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline stage.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline stage.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SpeciesResult is the outcome of one species' pipeline run. The batch
// driver returns one per identifier in both sequential and parallel mode.
type SpeciesResult struct {
	Identifier  string        `json:"identifier"`
	Name        string        `json:"name,omitempty"`
	RunID       string        `json:"run_id,omitempty"`
	Status      RunStatus     `json:"status"`
	Message     string        `json:"message"`
	Phases      []PhaseResult `json:"phases"`
	OutputFiles []string      `json:"output_files,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Failed reports whether the species run ended in failure.
func (r SpeciesResult) Failed() bool { return r.Status == RunStatusFailed }
