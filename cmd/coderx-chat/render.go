package main

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	todoTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)
	todoPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// renderMarkdown 使用 Glamour 渲染 markdown 文本，失败时原样返回
// renderMarkdown renders markdown with Glamour, returning content unchanged
// on failure.
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func renderTodos(todos []string) string {
	var b strings.Builder
	b.WriteString(todoTitleStyle.Render("ACTIVE TASKS"))
	b.WriteString("\n")
	if len(todos) == 0 {
		b.WriteString(mutedStyle.Render("none"))
	}
	for i, t := range todos {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[ ] " + t)
	}
	return todoPanelStyle.Render(b.String())
}
