package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Status lines carry a tone so terminal output can color problem rows at a
// glance. Tones map onto the standard ANSI foreground colors.
type statusTone int

const (
	toneInfo statusTone = iota
	toneOK
	toneWarn
	toneError
)

var toneLabels = map[statusTone]string{
	toneInfo:  "INFO",
	toneOK:    "OK",
	toneWarn:  "WARN",
	toneError: "ERROR",
}

var toneColors = map[statusTone]string{
	toneInfo:  "\x1b[34m",
	toneOK:    "\x1b[32m",
	toneWarn:  "\x1b[33m",
	toneError: "\x1b[31m",
}

const ansiReset = "\x1b[0m"

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, tone statusTone, message string, colorize bool) string {
	detail := "[" + toneLabels[tone] + "]"
	if message != "" {
		detail += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", detail)
	if colorize {
		if color, ok := toneColors[tone]; ok {
			line = color + line + ansiReset
		}
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = toneColors[toneInfo] + line + ansiReset
		rule = toneColors[toneInfo] + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
