package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(1, 3)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("39")).
			Padding(0, 2)

	disabledButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("238"))

	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// signInBox renders the box content without positioning.
func (m *AppModel) signInBox() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("MailMate"))
	b.WriteString("\n")
	b.WriteString("Your AI assistant for Gmail.\n\n")

	switch {
	case m.deps.Client == nil:
		b.WriteString(disabledButtonStyle.Render("Sign in with Google"))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("Set MAILMATE_API_URL to enable sign-in."))
	case m.attempt != nil:
		b.WriteString(disabledButtonStyle.Render("Waiting for browser..."))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("Finish signing in, or press esc to give up."))
	default:
		b.WriteString(buttonStyle.Render("Sign in with Google"))
	}

	if m.banner != "" {
		b.WriteString("\n\n")
		b.WriteString(bannerStyle.Render(m.banner))
	}
	return boxStyle.Render(b.String())
}

func boxWidth(box string) int  { return lipgloss.Width(box) }
func boxHeight(box string) int { return lipgloss.Height(box) }

// signInView places the box at the controller's position.
func (m *AppModel) signInView() string {
	box := m.signInBox()
	pos := m.box.Position()

	var b strings.Builder
	b.WriteString(strings.Repeat("\n", pos.Y))
	indent := strings.Repeat(" ", max(pos.X, 0))
	for i, line := range strings.Split(box, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(indent)
		b.WriteString(line)
	}

	// Pin the footer to the bottom when there is room.
	used := pos.Y + boxHeight(box)
	if gap := m.height - used - 2; gap > 0 {
		b.WriteString(strings.Repeat("\n", gap))
	}
	b.WriteString("\n")
	b.WriteString(signInFooter())
	return b.String()
}

func signInFooter() string {
	return footerStyle.Render("enter: sign in  drag: move box  esc: cancel  q: quit")
}
