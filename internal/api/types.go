package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a queue entry in a transport-friendly format.
type Job struct {
	ID              int64           `json:"id"`
	Kind            string          `json:"kind"`
	Prompt          string          `json:"prompt"`
	AssistantRef    string          `json:"assistantRef,omitempty"`
	VoiceRef        string          `json:"voiceRef,omitempty"`
	TargetDuration  int             `json:"targetDurationMinutes,omitempty"`
	TargetWordCount int             `json:"targetWordCount,omitempty"`
	Status          string          `json:"status"`
	QueuePosition   int64           `json:"queuePosition"`
	ReviewApproved  bool            `json:"reviewApproved"`
	ForceRegenerate bool            `json:"forceRegenerate,omitempty"`
	SourceJobID     int64           `json:"sourceJobId,omitempty"`
	Progress        JobProgress     `json:"progress"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
	Script          json.RawMessage `json:"script,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
	CompletedAt     string          `json:"completedAt,omitempty"`
}

// JobProgress captures stage progress information for a queue entry.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// AssemblyView describes one assembly run of a video job.
type AssemblyView struct {
	ID          int64   `json:"id"`
	JobID       int64   `json:"jobId"`
	ArtifactRef string  `json:"artifactRef,omitempty"`
	Strategy    string  `json:"strategy"`
	Resolution  string  `json:"resolution"`
	FPS         int     `json:"fps"`
	Progress    float64 `json:"progress"`
	CurrentStep string  `json:"currentStep,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueCounts map[string]int `json:"queueCounts"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// QueueListResponse wraps a collection of jobs for API responses.
type QueueListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}
