package tui

import (
	"fmt"
	"strings"

	"mailmate/internal/conversation"
	"mailmate/internal/emaillist"
	"mailmate/internal/model"
	"mailmate/internal/render"

	"github.com/charmbracelet/lipgloss"
)

type itemKind int

const (
	itemAction itemKind = iota
	itemCategory
	itemEmail
	itemMore
)

// chatItem is one selectable affordance of the latest assistant turn.
type chatItem struct {
	kind       itemKind
	label      string
	category   model.Category
	email      model.Email
	actionType string
}

func (it chatItem) String() string {
	switch it.kind {
	case itemCategory:
		return "[" + it.category.Label + "]"
	case itemEmail:
		return emailLine(it.email)
	case itemMore:
		return it.label
	default:
		return "[" + it.label + "]"
	}
}

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	draftStyle     = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("214")).
			PaddingLeft(1)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func emailLine(e model.Email) string {
	var b strings.Builder
	if e.OrdinalNumber > 0 {
		fmt.Fprintf(&b, "%d. ", e.OrdinalNumber)
	}
	if name := render.SenderName(e.From); name != "" {
		b.WriteString(name)
		b.WriteString(": ")
	}
	b.WriteString(e.Subject)
	return b.String()
}

// latestAssistant returns the index of the last assistant turn, or -1.
func latestAssistant(msgs []conversation.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == conversation.RoleAssistant {
			return i
		}
	}
	return -1
}

func (m *AppModel) pagerFor(msg conversation.Message) *emaillist.Pager {
	if len(msg.Emails) == 0 {
		return nil
	}
	p, ok := m.pagers[msg.ID]
	if !ok {
		p = emaillist.New(msg.Emails)
		m.pagers[msg.ID] = p
	}
	return p
}

func (m *AppModel) latestPager() *emaillist.Pager {
	if m.conv == nil {
		return nil
	}
	msgs := m.conv.Messages()
	i := latestAssistant(msgs)
	if i < 0 {
		return nil
	}
	return m.pagerFor(msgs[i])
}

// items lists the affordances of the latest assistant turn. Older turns are
// rendered but no longer interactive.
func (m *AppModel) items() []chatItem {
	if m.conv == nil {
		return nil
	}
	msgs := m.conv.Messages()
	i := latestAssistant(msgs)
	if i < 0 {
		return nil
	}
	return m.itemsFor(msgs[i])
}

func (m *AppModel) itemsFor(msg conversation.Message) []chatItem {
	var items []chatItem
	for _, label := range msg.Actions {
		items = append(items, chatItem{kind: itemAction, label: label})
	}
	for _, c := range msg.Categories {
		items = append(items, chatItem{kind: itemCategory, category: c})
	}
	if p := m.pagerFor(msg); p != nil {
		for _, e := range p.Visible() {
			items = append(items, chatItem{kind: itemEmail, email: e, actionType: msg.ActionType})
		}
		if p.CanShowMore() {
			items = append(items, chatItem{
				kind:  itemMore,
				label: fmt.Sprintf("Show more (%d remaining)", p.Remaining()),
			})
		}
	}
	return items
}

// refreshTranscript re-renders the conversation into the transcript viewport.
func (m *AppModel) refreshTranscript() {
	if m.conv == nil {
		m.transcript.SetContent("")
		return
	}
	msgs := m.conv.Messages()
	latest := latestAssistant(msgs)
	width := max(m.width-2, 20)

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		m.writeMessage(&b, msg, i == latest, width)
	}
	if m.waiting {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Assistant is typing..."))
		b.WriteString("\n")
	}
	m.transcript.SetContent(b.String())
}

func (m *AppModel) writeMessage(b *strings.Builder, msg conversation.Message, interactive bool, width int) {
	wrap := lipgloss.NewStyle().Width(width)

	if msg.Role == conversation.RoleUser {
		b.WriteString(userStyle.Render("You"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.Text))
		b.WriteString("\n")
		return
	}

	b.WriteString(assistantStyle.Render("MailMate"))
	b.WriteString("\n")
	text := wrap.Render(msg.Text)
	if msg.Failed {
		text = failedStyle.Render(text)
	}
	b.WriteString(text)
	b.WriteString("\n")

	if msg.EmailContent != nil {
		b.WriteString("\n")
		b.WriteString(wrap.Render(render.Email(*msg.EmailContent)))
		b.WriteString("\n")
	}
	if msg.Draft != "" {
		if msg.OriginalEmail != nil {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("Reply to %s: %s", msg.OriginalEmail.From, msg.OriginalEmail.Subject)))
			b.WriteString("\n")
		}
		b.WriteString(draftStyle.Width(width - 2).Render(msg.Draft))
		b.WriteString("\n")
	}

	items := m.itemsFor(msg)
	for j, it := range items {
		line := "  " + it.String()
		if interactive && m.focus == focusItems && j == m.cursor {
			line = selectedStyle.Render(line)
		} else if !interactive && it.kind != itemEmail {
			line = mutedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func (m *AppModel) chatHeader() string {
	title := "MailMate"
	if name := m.profile.DisplayName(); name != "" {
		title += "  " + name
	}
	if m.conv != nil {
		if p := m.conv.Pending(); p != nil {
			title += "  " + pendingStyle.Render(pendingLabel(p))
		}
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render(title)
}

func pendingLabel(p conversation.PendingAction) string {
	switch p.(type) {
	case conversation.AwaitingReplyBody:
		return "(writing a reply)"
	case conversation.AwaitingSendConfirmation:
		return "(confirm send?)"
	case conversation.AwaitingDeleteConfirmation:
		return "(confirm delete?)"
	default:
		return ""
	}
}

func (m *AppModel) chatView() string {
	var b strings.Builder
	b.WriteString(m.chatHeader())
	b.WriteString("\n")
	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(chatFooter(m.focus))
	return b.String()
}

func chatFooter(f focusArea) string {
	if f == focusItems {
		return footerStyle.Render("↑/↓: move  enter: choose  o: open email  m: show more  tab: back to input")
	}
	return footerStyle.Render("enter: send  tab: choices  ctrl+x: cancel action  ctrl+r: latest  ctrl+h: history  ctrl+l: sign out  ctrl+c: quit")
}
