package stage

import (
	"storycast/internal/script"
	"storycast/internal/services"
)

// ParseScript parses a job's stored script payload.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseScript(raw string) (*script.Script, error) {
	parsed, err := script.Parse(raw)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "parse script",
			"Stored script missing or invalid; retry the job to regenerate it", err)
	}
	return parsed, nil
}
