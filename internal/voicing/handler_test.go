package voicing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storycast/internal/logging"
	"storycast/internal/notifications"
	"storycast/internal/queue"
	"storycast/internal/script"
	"storycast/internal/services/tts"
	"storycast/internal/testsupport"
	"storycast/internal/voicing"
)

const approvedScript = `{
  "shared_context": "ctx",
  "segments": [
    {"id": "s1", "title": "Opening", "position": 0, "blocks": [
      {"name": "narration", "text": "hello"},
      {"name": "aside", "text": "psst", "voice_ref": "echo"}
    ]},
    {"id": "s2", "title": "Closing", "position": 1, "blocks": [
      {"name": "narration", "text": "goodbye"}
    ]}
  ]
}`

type synthRequest struct {
	Blocks map[string]struct {
		Text     string `json:"text"`
		VoiceRef string `json:"voice_ref"`
	} `json:"blocks"`
}

func newVoicer(t *testing.T, serverURL string) (*voicing.Voicer, *queue.Store) {
	cfg := testsupport.NewConfig(t, testsupport.WithTTSBaseURL(serverURL))
	store := testsupport.MustOpenStore(t, cfg)
	client := tts.NewClient(tts.Config{APIKey: "test", BaseURL: serverURL, Voice: "fallback"})
	handler := voicing.NewVoicerWithDependencies(cfg, store, logging.NewNop(), client, notifications.NewService(cfg))
	return handler, store
}

func approvedJob(t *testing.T, store *queue.Store) *queue.Job {
	job := testsupport.NewPodcastJob(t, store, "approved topic")
	job.ScriptJSON = approvedScript
	job.Status = queue.StatusAwaitingReview
	job.ReviewApproved = true
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return job
}

func TestVoicerBatchesWholeScript(t *testing.T) {
	calls := 0
	var got synthRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		files := make([]map[string]string, 0, len(got.Blocks))
		for name := range got.Blocks {
			files = append(files, map[string]string{"filename": name + ".mp3", "block_name": name})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"generated_files": files})
	}))
	defer server.Close()

	handler, store := newVoicer(t, server.URL)
	job := approvedJob(t, store)
	ctx := context.Background()

	if err := handler.Prepare(ctx, job); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := handler.Execute(ctx, job); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected one batched synthesis call, got %d", calls)
	}
	if len(got.Blocks) != 3 {
		t.Fatalf("expected all 3 blocks in the batch, got %d", len(got.Blocks))
	}
	for key, block := range got.Blocks {
		switch block.Text {
		case "psst":
			if block.VoiceRef != "echo" {
				t.Fatalf("block %s: expected script voice ref, got %q", key, block.VoiceRef)
			}
		default:
			if block.VoiceRef != job.VoiceRef {
				t.Fatalf("block %s: expected job voice ref, got %q", key, block.VoiceRef)
			}
		}
	}

	if job.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
	var result tts.SynthesizeResult
	if err := json.Unmarshal([]byte(job.ResultJSON), &result); err != nil {
		t.Fatalf("result does not parse: %v", err)
	}
	if len(result.GeneratedFiles) != 3 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestVoicerRequiresConfirmedReview(t *testing.T) {
	handler, store := newVoicer(t, "http://127.0.0.1:0")
	job := testsupport.NewPodcastJob(t, store, "unreviewed")
	job.ScriptJSON = approvedScript
	job.Status = queue.StatusAwaitingReview

	if err := handler.Prepare(context.Background(), job); err == nil {
		t.Fatal("expected error for unconfirmed review")
	}
}

func TestVoicerSynthesisFailureKeepsScript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("voice backend down"))
	}))
	defer server.Close()

	handler, store := newVoicer(t, server.URL)
	job := approvedJob(t, store)
	ctx := context.Background()

	if err := handler.Prepare(ctx, job); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := handler.Execute(ctx, job); err == nil {
		t.Fatal("expected synthesis failure")
	}
	if job.Status == queue.StatusCompleted {
		t.Fatal("failed synthesis must not complete the job")
	}
	if _, err := script.Parse(job.ScriptJSON); err != nil {
		t.Fatalf("approved script must survive the failure: %v", err)
	}
}

func TestVoicerHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.TTS.APIKey = ""
	store := testsupport.MustOpenStore(t, cfg)
	handler := voicing.NewVoicerWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewService(cfg))
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage without api key")
	}
}
