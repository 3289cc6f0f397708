package main

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	accent  = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#9D8CFF"}
	muted   = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	success = lipgloss.Color("#3FB950")
	warning = lipgloss.Color("#D29922")
	danger  = lipgloss.Color("#F85149")
)

// Styles holds the terminal styles used by the interactive loops.
type Styles struct {
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Command lipgloss.Style
}

var styles = Styles{
	Title:   lipgloss.NewStyle().Foreground(accent).Bold(true),
	Prompt:  lipgloss.NewStyle().Foreground(accent).Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(muted),
	Success: lipgloss.NewStyle().Foreground(success).Bold(true),
	Warning: lipgloss.NewStyle().Foreground(warning).Bold(true),
	Error:   lipgloss.NewStyle().Foreground(danger).Bold(true),
	Command: lipgloss.NewStyle().Foreground(accent).Width(30),
}

// renderCode renders source as a highlighted fenced block. It falls back to
// the raw source when the renderer is unavailable.
func renderCode(source string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return source
	}
	out, err := renderer.Render("```ts\n" + strings.TrimRight(source, "\n") + "\n```\n")
	if err != nil {
		return source
	}
	return out
}

// helpLines formats a command table.
func helpLines(title string, rows [][2]string) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(styles.Command.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}
	return b.String()
}
