package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Script is the drafted narration plan a podcast job carries between stages.
// The structure stage creates it with empty blocks; the draft fan-out fills
// the blocks in; the review gate may replace it wholesale with edited content.
type Script struct {
	SharedContext string    `json:"shared_context,omitempty"`
	Segments      []Segment `json:"segments"`
}

// Segment is one structural unit of the narration.
type Segment struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Summary  string       `json:"summary,omitempty"`
	Position int          `json:"position"`
	Blocks   []VoiceBlock `json:"blocks,omitempty"`
}

// VoiceBlock is the leaf unit submitted to voice synthesis.
type VoiceBlock struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	VoiceRef string `json:"voice_ref,omitempty"`
}

// ImageAsset is one resolved image plus its recomputed effect sequence.
type ImageAsset struct {
	Filename      string   `json:"filename"`
	PositionIndex int      `json:"position_index"`
	SourcePrompt  string   `json:"source_prompt,omitempty"`
	Effects       []string `json:"effects,omitempty"`
}

// VoiceBlocks returns every block across all segments in segment order.
func (s *Script) VoiceBlocks() []VoiceBlock {
	if s == nil {
		return nil
	}
	var blocks []VoiceBlock
	for _, segment := range s.Segments {
		blocks = append(blocks, segment.Blocks...)
	}
	return blocks
}

// Drafted reports whether every segment carries at least one content block.
func (s *Script) Drafted() bool {
	if s == nil || len(s.Segments) == 0 {
		return false
	}
	for _, segment := range s.Segments {
		if len(segment.Blocks) == 0 {
			return false
		}
	}
	return true
}

// Validate checks the structural shape of a script. It is the only check the
// review gate applies to edited content; text itself passes through unchanged.
func (s *Script) Validate() error {
	if s == nil {
		return errors.New("script is nil")
	}
	if len(s.Segments) == 0 {
		return errors.New("script has no segments")
	}
	seen := make(map[string]struct{}, len(s.Segments))
	for i, segment := range s.Segments {
		if strings.TrimSpace(segment.ID) == "" {
			return fmt.Errorf("segment %d: id is empty", i)
		}
		if _, dup := seen[segment.ID]; dup {
			return fmt.Errorf("segment %d: duplicate id %q", i, segment.ID)
		}
		seen[segment.ID] = struct{}{}
		for j, block := range segment.Blocks {
			if strings.TrimSpace(block.Name) == "" {
				return fmt.Errorf("segment %q: block %d: name is empty", segment.ID, j)
			}
			if strings.TrimSpace(block.Text) == "" {
				return fmt.Errorf("segment %q: block %q: text is empty", segment.ID, block.Name)
			}
		}
	}
	return nil
}

// Parse decodes and shape-validates a serialized script.
func Parse(data string) (*Script, error) {
	if strings.TrimSpace(data) == "" {
		return nil, errors.New("script payload is empty")
	}
	var s Script
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encode serializes a script for queue persistence.
func (s *Script) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode script: %w", err)
	}
	return string(data), nil
}

// EncodeAssets serializes resolved image assets for queue persistence.
func EncodeAssets(assets []ImageAsset) (string, error) {
	data, err := json.Marshal(assets)
	if err != nil {
		return "", fmt.Errorf("encode image assets: %w", err)
	}
	return string(data), nil
}

// ParseAssets decodes serialized image assets.
func ParseAssets(data string) ([]ImageAsset, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var assets []ImageAsset
	if err := json.Unmarshal([]byte(data), &assets); err != nil {
		return nil, fmt.Errorf("decode image assets: %w", err)
	}
	return assets, nil
}
