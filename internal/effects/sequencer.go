// Package effects assigns motion-effect sequences to ordered image assets.
// Every function is a pure function of index and total count, so a rerun
// over the same asset list always produces the same assignment.
package effects

// Effect names a single motion effect applied to an image during assembly.
type Effect string

const (
	ZoomIn   Effect = "zoom_in"
	ZoomOut  Effect = "zoom_out"
	PanLeft  Effect = "pan_left"
	PanRight Effect = "pan_right"
)

// Strategy selects how sequences are assigned across a whole asset list.
type Strategy string

const (
	// StrategyStatic assigns no effects; images are shown as stills.
	StrategyStatic Strategy = "static"
	// StrategyFast assigns one effect per image, cycling the rotation.
	StrategyFast Strategy = "fast"
	// StrategyQuality assigns the full rotation to every image.
	StrategyQuality Strategy = "quality"
)

var rotation = [4]Effect{ZoomIn, ZoomOut, PanLeft, PanRight}

// Rotation returns the canonical effect order.
func Rotation() []Effect {
	seq := make([]Effect, len(rotation))
	copy(seq, rotation[:])
	return seq
}

// ParseStrategy normalizes a strategy name, defaulting to quality.
func ParseStrategy(value string) Strategy {
	switch Strategy(value) {
	case StrategyStatic, StrategyFast, StrategyQuality:
		return Strategy(value)
	default:
		return StrategyQuality
	}
}

// Default assigns the position-based sequence for one image. The normalized
// position p = index / max(total-1, 1) buckets into an opening zoom-in, an
// alternating pan through the middle, and a closing zoom-out.
func Default(index, total int) []Effect {
	denominator := total - 1
	if denominator < 1 {
		denominator = 1
	}
	p := float64(index) / float64(denominator)
	switch {
	case p <= 0.2:
		return []Effect{ZoomIn}
	case p <= 0.8:
		if index%2 == 0 {
			return []Effect{PanLeft}
		}
		return []Effect{PanRight}
	default:
		return []Effect{ZoomOut}
	}
}

// Bulk assigns the full rotation, used for the quality strategy.
func Bulk() []Effect {
	return Rotation()
}

// Cycle assigns a single effect by cycling the rotation with the index.
func Cycle(index int) []Effect {
	return []Effect{rotation[index%len(rotation)]}
}

// Plan recomputes the sequence for every one of total images under the given
// strategy. It is total: any previously stored sequences are replaced, never
// merged.
func Plan(strategy Strategy, total int) [][]Effect {
	sequences := make([][]Effect, total)
	for i := range sequences {
		switch strategy {
		case StrategyStatic:
			sequences[i] = nil
		case StrategyFast:
			sequences[i] = Cycle(i)
		default:
			sequences[i] = Bulk()
		}
	}
	return sequences
}

// Names converts a sequence to its serialized string form.
func Names(sequence []Effect) []string {
	if len(sequence) == 0 {
		return nil
	}
	names := make([]string, len(sequence))
	for i, effect := range sequence {
		names[i] = string(effect)
	}
	return names
}
