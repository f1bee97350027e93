package output

import (
	"os"

	"golang.org/x/term"

	"github.com/bimmerbailey/bodhi/internal/prompt"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts "auto", "always" or "never"; anything else is auto.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

type section int

const (
	sectionAnalysis section = iota
	sectionResponse
	sectionFooter
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isTerminal(f)
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// taskColor picks the response header color for a routed task.
func taskColor(task prompt.TaskType) string {
	switch task {
	case prompt.TaskEmergency:
		return colorBold + colorRed
	case prompt.TaskTechnical, prompt.TaskHybrid:
		return colorYellow
	default:
		return colorBold
	}
}

// colorizeHeader wraps a section header in its color when colorize is set.
func colorizeHeader(s section, task prompt.TaskType, text string, colorize bool) string {
	if !colorize {
		return text
	}

	switch s {
	case sectionAnalysis:
		return colorCyan + text + colorReset
	case sectionResponse:
		return taskColor(task) + text + colorReset
	case sectionFooter:
		return colorGray + text + colorReset
	default:
		return text
	}
}
