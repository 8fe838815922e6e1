package api

import (
	"encoding/json"
	"sort"
	"strings"

	"storycast/internal/queue"
	"storycast/internal/stage"
	"storycast/internal/workflow"
)

// FromJob converts a queue job into its transport representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:              job.ID,
		Kind:            string(job.Kind),
		Prompt:          job.Prompt,
		AssistantRef:    job.AssistantRef,
		VoiceRef:        job.VoiceRef,
		TargetDuration:  job.TargetDuration,
		TargetWordCount: job.TargetWordCount,
		Status:          string(job.Status),
		QueuePosition:   job.QueuePosition,
		ReviewApproved:  job.ReviewApproved,
		ForceRegenerate: job.ForceRegenerate,
		SourceJobID:     job.SourceJobID,
		ErrorMessage:    job.ErrorMessage,
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
	}
	if raw := strings.TrimSpace(job.ScriptJSON); raw != "" && json.Valid([]byte(raw)) {
		dto.Script = json.RawMessage(raw)
	}
	if raw := strings.TrimSpace(job.ResultJSON); raw != "" && json.Valid([]byte(raw)) {
		dto.Result = json.RawMessage(raw)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if job.CompletedAt != nil {
		dto.CompletedAt = job.CompletedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue jobs, preserving order.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromAssemblyItem converts an assembly record into its transport form.
func FromAssemblyItem(item *queue.AssemblyItem) *AssemblyView {
	if item == nil {
		return nil
	}
	return &AssemblyView{
		ID:          item.ID,
		JobID:       item.JobID,
		ArtifactRef: item.ArtifactRef,
		Strategy:    item.Strategy,
		Resolution:  item.Resolution,
		FPS:         item.FPS,
		Progress:    item.Progress,
		CurrentStep: item.CurrentStep,
	}
}

// FromStatusSummary converts workflow diagnostics into the API shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:     summary.Running,
		LastError:   summary.LastError,
		QueueCounts: queueCounts(summary.Queue),
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastJob != nil {
		job := FromJob(summary.LastJob)
		status.LastJob = &job
	}
	return status
}

// StageHealthSlice flattens the health map into a deterministic order.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(health))
	for name, entry := range health {
		out = append(out, StageHealth{Name: name, Ready: entry.Ready, Detail: entry.Detail})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func queueCounts(summary queue.HealthSummary) map[string]int {
	return map[string]int{
		string(queue.StatusWaiting):        summary.Waiting,
		string(queue.StatusProcessing):     summary.Processing,
		string(queue.StatusAwaitingReview): summary.AwaitingReview,
		string(queue.StatusCompleted):      summary.Completed,
		string(queue.StatusError):          summary.Errored,
		string(queue.StatusCancelled):      summary.Cancelled,
	}
}
