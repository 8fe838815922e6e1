package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders compact single-line records for interactive use.
// Context attrs (job, stage) form a subject prefix; remaining attrs trail
// as key=value pairs.
type consoleHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(out io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, record.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	var subjectJob, subjectStage string
	rest := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		switch attr.Key {
		case FieldJobID:
			subjectJob = attr.Value.String()
		case FieldStage:
			subjectStage = attr.Value.String()
		case FieldCorrelationID, FieldComponent:
			// Too noisy for interactive output; JSON format keeps them.
		default:
			rest = append(rest, attr)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Key < rest[j].Key })

	var b strings.Builder
	b.WriteString(record.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	b.WriteByte(' ')
	if subject := formatSubject(subjectJob, subjectStage); subject != "" {
		b.WriteString(subject)
		b.WriteString(" · ")
	}
	b.WriteString(record.Message)
	for _, attr := range rest {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(attr.Value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func formatSubject(jobID, stage string) string {
	switch {
	case jobID != "" && stage != "":
		return "Job #" + jobID + " (" + stage + ")"
	case jobID != "":
		return "Job #" + jobID
	case stage != "":
		return stage
	default:
		return ""
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

func formatValue(value slog.Value) string {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		str := value.String()
		if strings.ContainsAny(str, " \t") {
			return fmt.Sprintf("%q", str)
		}
		return str
	case slog.KindDuration:
		return value.Duration().Round(time.Millisecond).String()
	default:
		return value.String()
	}
}
