package conversation

import (
	"mailmate/internal/command"
	"mailmate/internal/model"

	"github.com/google/uuid"
)

// Role is who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the transcript. History is append-only.
type Message struct {
	ID   string
	Role Role
	Text string

	// Attachments, set on assistant turns only.
	Emails        []model.Email
	EmailContent  *model.EmailContent
	Draft         string // drafted reply awaiting confirmation
	OriginalEmail *model.OriginalEmail
	Categories    []model.Category
	Actions       []string // action button labels
	ActionType    string   // verb applied when an email in Emails is picked

	Failed bool
}

// Action button labels offered with the greeting.
const (
	LabelViewRead       = "View & Read"
	LabelSummarize      = "Summarize Emails"
	LabelReplyCompose   = "Reply & Compose"
	LabelDeleteOrganize = "Delete & Organize"
	LabelDailyDigest    = "Daily Digest"
	LabelCategorize     = "Categorize Mails"
)

// DefaultActions are the shortcuts shown under the greeting.
var DefaultActions = []string{
	LabelViewRead,
	LabelSummarize,
	LabelReplyCompose,
	LabelDeleteOrganize,
	LabelDailyDigest,
	LabelCategorize,
}

var actionTypes = map[string]string{
	LabelViewRead:       command.ActionRead,
	LabelSummarize:      command.ActionSummarize,
	LabelReplyCompose:   command.ActionReply,
	LabelDeleteOrganize: command.ActionDelete,
}

// ActionTypeFor returns the list verb a button label leads to, or "".
func ActionTypeFor(label string) string { return actionTypes[label] }

func userMessage(text string) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Text: text}
}

func assistantMessage(text string) Message {
	return Message{ID: uuid.NewString(), Role: RoleAssistant, Text: text}
}

func responseMessage(resp model.ChatResponse, actionType string) Message {
	m := assistantMessage(resp.Reply)
	m.Emails = resp.Emails
	m.EmailContent = resp.EmailContent
	m.Draft = resp.GeneratedReply
	m.OriginalEmail = resp.OriginalEmail
	if resp.ShowCategoryButtons || len(resp.Categories) > 0 {
		m.Categories = resp.Categories
	}
	m.ActionType = resp.ActionType
	if m.ActionType == "" {
		m.ActionType = actionType
	}
	return m
}

func failureMessage(err error) Message {
	m := assistantMessage("Sorry, something went wrong: " + err.Error())
	m.Failed = true
	return m
}
