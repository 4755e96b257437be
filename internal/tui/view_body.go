package tui

import (
	"fmt"
	"strings"

	"mailmate/internal/model"
	"mailmate/internal/render"

	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")).
	PaddingBottom(1)

func bodyHeader(c model.EmailContent) string {
	lines := []string{"From: " + c.From}
	if c.To != "" {
		lines = append(lines, "To: "+c.To)
	}
	lines = append(lines, "Subject: "+c.Subject)
	if c.Date != "" {
		lines = append(lines, "Date: "+c.Date)
	}
	return headerStyle.Render(strings.Join(lines, "\n"))
}

// emailBody renders an opened email for the body viewport.
func emailBody(c model.EmailContent, width int) string {
	body := render.Body(c)
	if width > 0 {
		body = lipgloss.NewStyle().Width(width).Render(body)
	}
	return fmt.Sprintf("%s\n%s", bodyHeader(c), body)
}

func bodyFooter() string {
	return footerStyle.Render("↑/↓: scroll  esc: back  q: quit")
}
