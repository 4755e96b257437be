package tui

import (
	"fmt"

	"mailmate/internal/model"
	"mailmate/internal/render"

	"github.com/charmbracelet/bubbles/list"
)

// emailItem wraps Email for the list display.
type emailItem struct {
	model.Email
}

func (e emailItem) FilterValue() string { return e.Subject + " " + e.From }
func (e emailItem) Title() string       { return e.Subject }
func (e emailItem) Description() string {
	from := render.SenderName(e.From)
	if e.Date != "" {
		return fmt.Sprintf("From: %s  Date: %s", from, e.Date)
	}
	return fmt.Sprintf("From: %s", from)
}

func inboxFooter() string {
	return footerStyle.Render("enter: read  /: filter  esc: back  q: quit")
}

func emailsToItems(emails []model.Email) []list.Item {
	items := make([]list.Item, len(emails))
	for i, e := range emails {
		items[i] = emailItem{e}
	}
	return items
}
