package ipc

import "storycast/internal/api"

// Job mirrors the HTTP API queue DTO for IPC callers.
type Job = api.Job

// StageHealth describes readiness of a workflow stage.
type StageHealth = api.StageHealth

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	QueueCounts map[string]int `json:"queue_counts"`
	LastError   string         `json:"last_error"`
	LastJob     *Job           `json:"last_job"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
	APIAddress  string         `json:"api_address"`
	StageHealth []StageHealth  `json:"stage_health"`
}

// QueueAddRequest enqueues a new podcast job.
type QueueAddRequest struct {
	Prompt          string `json:"prompt"`
	AssistantRef    string `json:"assistant_ref"`
	VoiceRef        string `json:"voice_ref"`
	TargetDuration  int    `json:"target_duration"`
	TargetWordCount int    `json:"target_word_count"`
}

// QueueAddVideoRequest enqueues a video assembly job.
type QueueAddVideoRequest struct {
	SourceJobID     int64 `json:"source_job_id"`
	ForceRegenerate bool  `json:"force_regenerate"`
}

// JobResponse carries a single job back to the caller.
type JobResponse struct {
	Job Job `json:"job"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Jobs []Job `json:"jobs"`
}

// QueueDescribeRequest fetches a single job by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueRetryRequest requeues an errored job.
type QueueRetryRequest struct {
	ID int64 `json:"id"`
}

// QueueCancelRequest cancels a job.
type QueueCancelRequest struct {
	ID int64 `json:"id"`
}

// QueueRemoveRequest removes a job.
type QueueRemoveRequest struct {
	ID int64 `json:"id"`
}

// QueueRemoveResponse acknowledges removal.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueClearRequest removes jobs in bulk. CompletedOnly keeps active jobs.
type QueueClearRequest struct {
	CompletedOnly bool `json:"completed_only"`
}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// ReviewConfirmRequest approves a job at the review checkpoint. EditedScript
// optionally replaces the stored script.
type ReviewConfirmRequest struct {
	ID           int64  `json:"id"`
	EditedScript string `json:"edited_script"`
}

// ReviewRejectRequest abandons a job at the review checkpoint.
type ReviewRejectRequest struct {
	ID int64 `json:"id"`
}

// ForceDispatchRequest wakes the scheduler immediately.
type ForceDispatchRequest struct{}

// ForceDispatchResponse acknowledges the wake.
type ForceDispatchResponse struct {
	Triggered bool `json:"triggered"`
}

// LogTailRequest reads daemon log lines. A negative Offset requests the last
// Limit lines; WaitMillis bounds how long the daemon blocks when following.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
