// Package theme holds the terminal styles of the CLI output.
package theme

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Option = lipgloss.NewStyle().
		Foreground(Secondary)

	Answer = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// RenderQuestion styles a question in the fixed multiple-choice format:
// option lines and the answer line get their own colors.
func RenderQuestion(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Respuesta correcta"):
			lines[i] = Answer.Render(line)
		case len(trimmed) > 1 && trimmed[1] == ')' && strings.ContainsRune("ABCD", rune(trimmed[0])):
			lines[i] = Option.Render(line)
		default:
			lines[i] = Body.Render(line)
		}
	}
	return Card.Render(strings.Join(lines, "\n"))
}

// Field renders "label: value" with a dim label.
func Field(label, value string) string {
	return Label.Render(label+":") + " " + Body.Render(value)
}
