package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSynthesizeBatchedCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Blocks) != 2 {
			t.Fatalf("expected 2 blocks in one call, got %d", len(req.Blocks))
		}
		if req.Blocks["intro"].VoiceRef != "alloy" {
			t.Fatalf("expected explicit voice ref, got %q", req.Blocks["intro"].VoiceRef)
		}
		if req.Blocks["outro"].VoiceRef != "fallback" {
			t.Fatalf("expected default voice fallback, got %q", req.Blocks["outro"].VoiceRef)
		}
		_ = json.NewEncoder(w).Encode(synthesizeResponse{
			GeneratedFiles: []GeneratedFile{
				{Filename: "intro.mp3", BlockName: "intro"},
				{Filename: "outro.mp3", BlockName: "outro"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Voice: "fallback"})
	result, err := client.Synthesize(context.Background(), map[string]BlockInput{
		"intro": {Text: "hello", VoiceRef: "alloy"},
		"outro": {Text: "goodbye"},
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single batched call, got %d", calls)
	}
	if len(result.GeneratedFiles) != 2 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestSynthesizeRejectsIncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(synthesizeResponse{
			GeneratedFiles: []GeneratedFile{{Filename: "intro.mp3", BlockName: "intro"}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), map[string]BlockInput{
		"intro": {Text: "hello", VoiceRef: "alloy"},
		"outro": {Text: "goodbye", VoiceRef: "alloy"},
	})
	if err == nil || !strings.Contains(err.Error(), "expected 2 files") {
		t.Fatalf("expected incomplete response error, got %v", err)
	}
}

func TestSynthesizeHTTPErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("quota exhausted"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), map[string]BlockInput{
		"intro": {Text: "hello", VoiceRef: "alloy"},
	})
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestSynthesizeValidatesInput(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Synthesize(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty block set")
	}
	if _, err := client.Synthesize(context.Background(), map[string]BlockInput{"b": {Text: "  "}}); err == nil {
		t.Fatal("expected error for blank text")
	}
}
