// Package util provides shared text helpers for logs and console output.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Excerpt collapses runs of whitespace in s to single spaces and truncates
// the result to maxLen runes, adding "..." if truncated. Model replies are
// logged through it so one attribute stays on one short line.
func Excerpt(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 3 {
		if s == "" {
			return ""
		}
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// FitWidth truncates a styled line to maxWidth visual columns, adding "..."
// if truncated. Escape codes and wide characters are measured correctly.
// A non-positive maxWidth leaves s unchanged.
func FitWidth(s string, maxWidth int) string {
	if maxWidth <= 0 || lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return "..."
	}
	return ansi.Truncate(s, maxWidth, "...")
}
