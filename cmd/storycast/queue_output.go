package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"storycast/internal/api"
	"storycast/internal/queue"
)

// statusDisplayOrder keeps summary tables in lifecycle order.
var statusDisplayOrder = func() map[string]int {
	order := make(map[string]int)
	for i, status := range queue.AllStatuses() {
		order[string(status)] = i
	}
	return order
}()

func buildQueueCountRows(counts map[string]int) [][]string {
	rows := make([][]string, 0, len(counts))
	for status, count := range counts {
		if count == 0 {
			continue
		}
		rows = append(rows, []string{status, strconv.Itoa(count)})
	}
	sort.Slice(rows, func(i, j int) bool {
		oi, iok := statusDisplayOrder[rows[i][0]]
		oj, jok := statusDisplayOrder[rows[j][0]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return rows[i][0] < rows[j][0]
	})
	return rows
}

func buildQueueListRows(jobs []api.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Kind,
			truncate(job.Prompt, 48),
			job.Status,
			progressCell(job),
			job.CreatedAt,
		})
	}
	return rows
}

func progressCell(job api.Job) string {
	stage := strings.TrimSpace(job.Progress.Stage)
	if stage == "" {
		return ""
	}
	return fmt.Sprintf("%s (%.0f%%)", stage, job.Progress.Percent)
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}

func renderJobDetails(job *api.Job) []string {
	lines := []string{
		fmt.Sprintf("Job %d (%s)", job.ID, job.Kind),
		fmt.Sprintf("  Status:          %s", job.Status),
		fmt.Sprintf("  Prompt:          %s", job.Prompt),
	}
	if job.VoiceRef != "" {
		lines = append(lines, fmt.Sprintf("  Voice:           %s", job.VoiceRef))
	}
	if job.AssistantRef != "" {
		lines = append(lines, fmt.Sprintf("  Assistant:       %s", job.AssistantRef))
	}
	if job.TargetDuration > 0 {
		lines = append(lines, fmt.Sprintf("  Target duration: %d min", job.TargetDuration))
	}
	if job.TargetWordCount > 0 {
		lines = append(lines, fmt.Sprintf("  Target words:    %d", job.TargetWordCount))
	}
	if job.SourceJobID > 0 {
		lines = append(lines, fmt.Sprintf("  Source job:      %d", job.SourceJobID))
	}
	if stage := progressCell(*job); stage != "" {
		lines = append(lines, fmt.Sprintf("  Progress:        %s", stage))
	}
	if job.Status == string(queue.StatusAwaitingReview) {
		lines = append(lines, fmt.Sprintf("  Review approved: %s", yesNo(job.ReviewApproved)))
	}
	if job.ErrorMessage != "" {
		lines = append(lines, fmt.Sprintf("  Error:           %s", job.ErrorMessage))
	}
	if job.CreatedAt != "" {
		lines = append(lines, fmt.Sprintf("  Created:         %s", job.CreatedAt))
	}
	if job.CompletedAt != "" {
		lines = append(lines, fmt.Sprintf("  Completed:       %s", job.CompletedAt))
	}
	return lines
}
