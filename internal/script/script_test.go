package script_test

import (
	"strings"
	"testing"

	"storycast/internal/script"
)

func sample() *script.Script {
	return &script.Script{
		SharedContext: "history of radio",
		Segments: []script.Segment{
			{
				ID:       "seg-1",
				Title:    "Origins",
				Position: 0,
				Blocks: []script.VoiceBlock{
					{Name: "seg-1-b0", Text: "In the beginning...", VoiceRef: "alloy"},
				},
			},
			{
				ID:       "seg-2",
				Title:    "Golden Age",
				Position: 1,
				Blocks: []script.VoiceBlock{
					{Name: "seg-2-b0", Text: "By the thirties...", VoiceRef: "alloy"},
					{Name: "seg-2-b1", Text: "Families gathered...", VoiceRef: "echo"},
				},
			},
		},
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	original := sample()
	encoded, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	parsed, err := script.Parse(encoded)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(parsed.Segments))
	}
	if parsed.Segments[1].Blocks[1].VoiceRef != "echo" {
		t.Fatalf("unexpected block: %#v", parsed.Segments[1].Blocks[1])
	}
}

func TestVoiceBlocksAggregatesInOrder(t *testing.T) {
	blocks := sample().VoiceBlocks()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	want := []string{"seg-1-b0", "seg-2-b0", "seg-2-b1"}
	for i, name := range want {
		if blocks[i].Name != name {
			t.Fatalf("block %d: expected %q, got %q", i, name, blocks[i].Name)
		}
	}
}

func TestValidateRejectsMalformedShapes(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*script.Script)
		fragment string
	}{
		{"no segments", func(s *script.Script) { s.Segments = nil }, "no segments"},
		{"empty id", func(s *script.Script) { s.Segments[0].ID = " " }, "id is empty"},
		{"duplicate id", func(s *script.Script) { s.Segments[1].ID = "seg-1" }, "duplicate id"},
		{"empty text", func(s *script.Script) { s.Segments[0].Blocks[0].Text = "" }, "text is empty"},
		{"empty block name", func(s *script.Script) { s.Segments[0].Blocks[0].Name = "" }, "name is empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := sample()
			tc.mutate(s)
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("expected %q error, got %v", tc.fragment, err)
			}
		})
	}
}

func TestDrafted(t *testing.T) {
	s := sample()
	if !s.Drafted() {
		t.Fatal("expected drafted script")
	}
	s.Segments[0].Blocks = nil
	if s.Drafted() {
		t.Fatal("expected undrafted script when a segment has no blocks")
	}
}

func TestParseRejectsEmptyPayload(t *testing.T) {
	if _, err := script.Parse("  "); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestAssetsRoundTrip(t *testing.T) {
	assets := []script.ImageAsset{
		{Filename: "img-0.png", PositionIndex: 0, SourcePrompt: "a radio tower", Effects: []string{"zoom_in"}},
		{Filename: "img-1.png", PositionIndex: 1, Effects: []string{"pan_left"}},
	}
	encoded, err := script.EncodeAssets(assets)
	if err != nil {
		t.Fatalf("EncodeAssets failed: %v", err)
	}
	parsed, err := script.ParseAssets(encoded)
	if err != nil {
		t.Fatalf("ParseAssets failed: %v", err)
	}
	if len(parsed) != 2 || parsed[0].Effects[0] != "zoom_in" {
		t.Fatalf("unexpected assets: %#v", parsed)
	}
}

func TestParseAssetsEmpty(t *testing.T) {
	parsed, err := script.ParseAssets("")
	if err != nil || parsed != nil {
		t.Fatalf("expected nil assets, got %v, %v", parsed, err)
	}
}
