package conversation

import (
	"strings"

	"mailmate/internal/model"
)

// PendingAction is the single outstanding mutating intent. nil means none.
type PendingAction interface {
	// Target is the email the action applies to.
	Target() string
	pending()
}

// AwaitingReplyBody waits for the user to type the body of a reply.
type AwaitingReplyBody struct {
	EmailID string
}

// AwaitingSendConfirmation holds a drafted reply until the user confirms it.
type AwaitingSendConfirmation struct {
	EmailID   string
	DraftText string
}

// AwaitingDeleteConfirmation holds a delete until the user confirms it.
type AwaitingDeleteConfirmation struct {
	EmailID string
}

func (p AwaitingReplyBody) Target() string          { return p.EmailID }
func (p AwaitingSendConfirmation) Target() string   { return p.EmailID }
func (p AwaitingDeleteConfirmation) Target() string { return p.EmailID }

func (AwaitingReplyBody) pending()          {}
func (AwaitingSendConfirmation) pending()   {}
func (AwaitingDeleteConfirmation) pending() {}

// Describe names a pending action for logs.
func Describe(p PendingAction) string {
	switch p := p.(type) {
	case AwaitingReplyBody:
		return "awaiting-reply-body:" + p.EmailID
	case AwaitingSendConfirmation:
		return "awaiting-send-confirmation:" + p.EmailID
	case AwaitingDeleteConfirmation:
		return "awaiting-delete-confirmation:" + p.EmailID
	default:
		return "none"
	}
}

// Confirmation is how a free-text answer to a confirmation prompt reads.
type Confirmation int

const (
	Unrecognized Confirmation = iota
	Affirm
	Deny
)

func (c Confirmation) String() string {
	switch c {
	case Affirm:
		return "affirm"
	case Deny:
		return "deny"
	default:
		return "unrecognized"
	}
}

// Classify reads a confirmation answer. Affirmation is checked first, so
// "yes, no problem" affirms.
func Classify(input string) Confirmation {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "yes", "confirm", "send", "y":
		return Affirm
	}
	if strings.Contains(s, "yes") || strings.Contains(s, "confirm") {
		return Affirm
	}
	if strings.Contains(s, "no") || strings.Contains(s, "cancel") {
		return Deny
	}
	return Unrecognized
}

// Next computes the pending action after a backend response. A declared
// action_required replaces whatever was pending; when the response omits the
// email id it is taken from the current action, but only if the declaration
// continues that action's flow. Without a declaration the current action is
// cleared, or kept when preserve is set.
func Next(current PendingAction, resp model.ChatResponse, preserve bool) PendingAction {
	id := resp.EmailID
	if id == "" && continues(current, resp.ActionRequired) {
		id = current.Target()
	}

	switch resp.ActionRequired {
	case model.ActionComposeReply:
		if id == "" {
			return nil
		}
		return AwaitingReplyBody{EmailID: id}
	case model.ActionConfirmSend:
		if id == "" {
			return nil
		}
		draft := resp.GeneratedReply
		if prev, ok := current.(AwaitingSendConfirmation); ok && draft == "" && prev.EmailID == id {
			draft = prev.DraftText
		}
		return AwaitingSendConfirmation{EmailID: id, DraftText: draft}
	case model.ActionConfirmDelete:
		if id == "" {
			return nil
		}
		return AwaitingDeleteConfirmation{EmailID: id}
	}

	if preserve {
		return current
	}
	return nil
}

// continues reports whether action is the same intent as current, or the
// next step of it (a reply body is followed by its send confirmation).
func continues(current PendingAction, action string) bool {
	switch current.(type) {
	case AwaitingReplyBody:
		return action == model.ActionComposeReply || action == model.ActionConfirmSend
	case AwaitingSendConfirmation:
		return action == model.ActionConfirmSend
	case AwaitingDeleteConfirmation:
		return action == model.ActionConfirmDelete
	default:
		return false
	}
}
