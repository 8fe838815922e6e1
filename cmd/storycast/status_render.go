package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var statusKindStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {label: "INFO", color: ansiBlue},
	statusOK:    {label: "OK", color: ansiGreen},
	statusWarn:  {label: "WARN", color: ansiYellow},
	statusError: {label: "ERROR", color: ansiRed},
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusKindStyles[kind]
	statusText := "[" + style.label + "]"
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", style.label, message)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize && style.color != "" {
		return style.color + base + ansiReset
	}
	return base
}

// stageHealthLine renders one generation stage's readiness. An unready stage
// shows the missing-configuration detail reported by its health check.
func stageHealthLine(name string, ready bool, detail string, colorize bool) string {
	if ready {
		return renderStatusLine(name, statusOK, "Ready", colorize)
	}
	return renderStatusLine(name, statusWarn, detail, colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
