package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queued job.
type Status string

const (
	StatusWaiting        Status = "waiting"
	StatusProcessing     Status = "processing"
	StatusAwaitingReview Status = "awaiting_review"
	StatusCompleted      Status = "completed"
	StatusError          Status = "error"
	StatusCancelled      Status = "cancelled"
)

// Kind distinguishes the two pipelines a job can run.
type Kind string

const (
	KindPodcast Kind = "podcast"
	KindVideo   Kind = "video"
)

// StaleRestartMessage is the error recorded for jobs found mid-processing on
// daemon startup. A crash cannot resume an in-flight collaborator call, so
// the job is parked as an error for the user to retry.
const StaleRestartMessage = "job was still processing when the daemon restarted; retry to requeue"

// ReviewAbandonedMessage is the fixed error recorded when a user rejects a
// job at the review checkpoint.
const ReviewAbandonedMessage = "cancelled by user after review"

var allStatuses = []Status{
	StatusWaiting,
	StatusProcessing,
	StatusAwaitingReview,
	StatusCompleted,
	StatusError,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindPodcast:
		return KindPodcast, true
	case KindVideo:
		return KindVideo, true
	default:
		return "", false
	}
}

// Job represents a queued unit of work persisted in SQLite.
type Job struct {
	ID              int64
	Kind            Kind
	Prompt          string
	AssistantRef    string
	VoiceRef        string
	TargetDuration  int
	TargetWordCount int
	Status          Status
	QueuePosition   int64
	ScriptJSON      string
	ReviewApproved  bool
	ForceRegenerate bool
	SourceJobID     int64
	ResultJSON      string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// AssemblyItem tracks one video assembly run for a job.
type AssemblyItem struct {
	ID             int64
	JobID          int64
	ArtifactRef    string
	Strategy       string
	Resolution     string
	FPS            int
	Progress       float64
	CurrentStep    string
	VoiceFilesJSON string
	ImagesJSON     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether a status admits no further scheduler transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// Eligible reports whether the scheduler may dispatch the job: either freshly
// waiting, or parked at the review gate with the review confirmed.
func (j *Job) Eligible() bool {
	if j == nil {
		return false
	}
	if j.Status == StatusWaiting {
		return true
	}
	return j.Status == StatusAwaitingReview && j.ReviewApproved
}

// SetProgress updates all three progress fields atomically.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetFailed marks the job as errored with the given message retained verbatim.
func (j *Job) SetFailed(message string) {
	j.Status = StatusError
	j.ErrorMessage = message
	j.ResultJSON = ""
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.ProgressStage = "Failed"
}

// SetCompleted marks the job terminal with its result payload.
func (j *Job) SetCompleted(resultJSON string) {
	now := time.Now().UTC()
	j.Status = StatusCompleted
	j.ResultJSON = resultJSON
	j.ErrorMessage = ""
	j.CompletedAt = &now
	j.ProgressPercent = 100
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total          int
	Waiting        int
	Processing     int
	AwaitingReview int
	Completed      int
	Errored        int
	Cancelled      int
}
