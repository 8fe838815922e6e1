// Package export copies finished episode artifacts into the configured media
// library directory.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storycast/internal/config"
	"storycast/internal/fileutil"
	"storycast/internal/queue"
	"storycast/internal/services/renderer"
	"storycast/internal/services/tts"
	"storycast/internal/textutil"
)

// Result reports which artifacts landed in the library and which source
// files could not be found on this host.
type Result struct {
	Destination string
	Copied      []string
	Missing     []string
}

// Episode copies a completed job's artifacts into MediaDir under a directory
// derived from the job id and prompt. Artifact references produced by remote
// services are skipped when they do not resolve to a local file.
func Episode(cfg *config.Config, job *queue.Job) (Result, error) {
	var result Result
	if cfg == nil || job == nil {
		return result, errors.New("config and job are required")
	}
	if job.Status != queue.StatusCompleted {
		return result, fmt.Errorf("job %d is %s; only completed jobs can be exported", job.ID, job.Status)
	}
	mediaDir := strings.TrimSpace(cfg.Paths.MediaDir)
	if mediaDir == "" {
		return result, errors.New("paths.media_dir is not configured")
	}

	sources, err := artifactPaths(job)
	if err != nil {
		return result, err
	}
	if len(sources) == 0 {
		return result, fmt.Errorf("job %d has no artifacts to export", job.ID)
	}

	dest := filepath.Join(mediaDir, episodeDirName(job))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return result, fmt.Errorf("create export directory: %w", err)
	}
	result.Destination = dest

	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			result.Missing = append(result.Missing, src)
			continue
		}
		target := filepath.Join(dest, textutil.SanitizeFileName(filepath.Base(src)))
		if err := fileutil.CopyFileVerified(src, target); err != nil {
			return result, fmt.Errorf("copy %s: %w", src, err)
		}
		result.Copied = append(result.Copied, target)
	}
	return result, nil
}

func episodeDirName(job *queue.Job) string {
	token := textutil.SanitizeToken(truncatePrompt(job.Prompt))
	return fmt.Sprintf("%03d_%s", job.ID, token)
}

func truncatePrompt(prompt string) string {
	const max = 40
	prompt = strings.TrimSpace(prompt)
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max]
}

func artifactPaths(job *queue.Job) ([]string, error) {
	payload := strings.TrimSpace(job.ResultJSON)
	if payload == "" {
		return nil, nil
	}
	switch job.Kind {
	case queue.KindPodcast:
		var parsed tts.SynthesizeResult
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			return nil, fmt.Errorf("decode synthesis result: %w", err)
		}
		paths := make([]string, 0, len(parsed.GeneratedFiles))
		for _, file := range parsed.GeneratedFiles {
			if strings.TrimSpace(file.Filename) == "" {
				continue
			}
			paths = append(paths, file.Filename)
		}
		return paths, nil
	case queue.KindVideo:
		var parsed renderer.AssembleResult
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			return nil, fmt.Errorf("decode assembly result: %w", err)
		}
		if strings.TrimSpace(parsed.ArtifactRef) == "" {
			return nil, nil
		}
		return []string{parsed.ArtifactRef}, nil
	default:
		return nil, fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
