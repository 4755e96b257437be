package tui

import (
	"fmt"
	"time"

	"mailmate/internal/model"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

// actionItem wraps ActionRecord to customize list display.
type actionItem struct {
	model.ActionRecord
}

func (a actionItem) FilterValue() string { return a.Action + " " + a.EmailID + " " + a.Reply }
func (a actionItem) Title() string {
	indicator := "  "
	if a.Status != "success" {
		indicator = "! "
	}
	return fmt.Sprintf("%s%s %s", indicator, actionVerb(a.Action), a.EmailID)
}
func (a actionItem) Description() string {
	return fmt.Sprintf("%s  %s", trimDate(a.CreatedAt), a.Reply)
}

func actionVerb(action string) string {
	switch action {
	case "send_reply":
		return "Sent reply to"
	case "delete":
		return "Deleted"
	default:
		return action
	}
}

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

func historyFooter() string {
	return footerStyle.Render("/: filter  esc: back  q: quit  !=failed")
}

func actionsToItems(recs []model.ActionRecord) []list.Item {
	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = actionItem{r}
	}
	return items
}

// trimDate converts an RFC3339 timestamp to a short date string.
func trimDate(rfc3339 string) string {
	if rfc3339 == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, rfc3339); err == nil {
		return t.Local().Format("Jan 2, 2006 15:04")
	}
	return rfc3339
}
