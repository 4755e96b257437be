package model

// Email is the list-result projection returned with an assistant turn.
type Email struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	From          string `json:"from"`
	Date          string `json:"date,omitempty"`
	Snippet       string `json:"snippet,omitempty"`
	Summary       string `json:"summary,omitempty"`
	OrdinalNumber int    `json:"email_number,omitempty"` // 1-based position in summary listings
}

// EmailContent is the full content of a single opened message.
type EmailContent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OriginalEmail identifies the message a drafted reply answers.
type OriginalEmail struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
}

// Category is a selectable mailbox label offered by the assistant.
type Category struct {
	ID    string `json:"id"` // Gmail label ID, e.g. CATEGORY_PROMOTIONS
	Label string `json:"label"`
}

// Profile is the signed-in user's identity as reported by the backend.
type Profile struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// DisplayName returns the best available name for greeting the user.
func (p Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.GivenName != "":
		return p.GivenName
	default:
		return p.Email
	}
}

// ActionRecord is one confirmed mutating action, kept for the audit log.
type ActionRecord struct {
	ID        string
	Action    string // "send_reply" or "delete"
	EmailID   string
	Status    string // "success", "error", "cancelled"
	Reply     string // assistant's reply or the error text
	CreatedAt string // RFC3339
}

// Values of ChatResponse.ActionRequired.
const (
	ActionComposeReply  = "compose_reply"
	ActionConfirmSend   = "confirm_send"
	ActionConfirmDelete = "confirm_delete"
)

// ChatResponse is the assistant's answer to one command.
type ChatResponse struct {
	Reply               string         `json:"reply"`
	Emails              []Email        `json:"emails,omitempty"`
	EmailID             string         `json:"email_id,omitempty"`
	EmailContent        *EmailContent  `json:"email_content,omitempty"`
	GeneratedReply      string         `json:"generated_reply,omitempty"`
	OriginalEmail       *OriginalEmail `json:"original_email,omitempty"`
	ActionRequired      string         `json:"action_required,omitempty"`
	ActionType          string         `json:"action_type,omitempty"`
	Categories          []Category     `json:"categories,omitempty"`
	ShowCategoryButtons bool           `json:"show_category_buttons,omitempty"`
	ShowEmailList       bool           `json:"show_email_list,omitempty"`
	EmailCount          int            `json:"email_count,omitempty"`
}

// ConfirmResponse is the outcome of a confirmed action.
type ConfirmResponse struct {
	Reply  string `json:"reply"`
	Status string `json:"status,omitempty"` // "success", "cancelled", "error"
}

// Greeting opens a conversation.
type Greeting struct {
	Reply    string  `json:"reply"`
	UserInfo Profile `json:"user_info"`
}

// ConfirmRequest asks the backend to carry out a pending action.
type ConfirmRequest struct {
	Action       string `json:"action"` // "send_reply" or "delete"
	EmailID      string `json:"email_id,omitempty"`
	ReplyText    string `json:"reply_text,omitempty"`
	Confirmation string `json:"confirmation"`
}
