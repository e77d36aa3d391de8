package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// theme is the colour palette for terminal output.
type theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Warning   lipgloss.Color
	Border    lipgloss.Color
}

func defaultTheme() theme {
	return theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Border:    lipgloss.Color("#45475A"),
	}
}

// answerStyles renders answers and their sources.
type answerStyles struct {
	Title    lipgloss.Style
	Answer   lipgloss.Style
	Source   lipgloss.Style
	Excerpt  lipgloss.Style
	NoResult lipgloss.Style
}

func newAnswerStyles(t theme) answerStyles {
	return answerStyles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		Answer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Source: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Secondary),
		Excerpt: lipgloss.NewStyle().
			Foreground(t.Muted).
			PaddingLeft(4),
		NoResult: lipgloss.NewStyle().
			Italic(true).
			Foreground(t.Warning),
	}
}

// maxExcerptLen caps how much of a matched chunk is shown.
const maxExcerptLen = 160

// renderAnswer formats a structured answer for the terminal.
func renderAnswer(answer *domain.StructuredAnswer) string {
	s := newAnswerStyles(defaultTheme())
	var b strings.Builder

	b.WriteString(s.Title.Render("Answer"))
	b.WriteString("\n")
	if answer.Answer == domain.NoMatchesText {
		b.WriteString(s.NoResult.Render(answer.Answer))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(s.Answer.Render(answer.Answer))
	b.WriteString("\n")

	if len(answer.RelevantDocuments) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(s.Title.Render("Sources"))
	b.WriteString("\n")
	for i, doc := range answer.RelevantDocuments {
		b.WriteString(s.Source.Render(fmt.Sprintf("[%d] %s", i+1, doc.Filename)))
		b.WriteString("\n")
		for _, chunk := range doc.MatchedChunks {
			b.WriteString(s.Excerpt.Render(excerpt(chunk)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// excerpt collapses whitespace and truncates text to maxExcerptLen runes.
func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= maxExcerptLen {
		return text
	}
	return string(r[:maxExcerptLen-3]) + "..."
}
