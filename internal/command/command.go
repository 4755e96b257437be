// Package command builds and parses the command strings the assistant backend
// understands on top of free text:
//
//	Summarize Emails                      action label, sent verbatim
//	category:<labelID>                    category selection
//	email_id:<id> action_type:<type>      email picked from a list
//	reply_text:<emailID>:<body>           body of a reply being composed
//
// The formats are matched byte-for-byte by the backend.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies which form a Command takes.
type Kind int

const (
	KindText Kind = iota
	KindCategory
	KindSelectEmail
	KindReplyText
)

// Action types attached to list selections.
const (
	ActionRead      = "read"
	ActionSummarize = "summarize"
	ActionReply     = "reply"
	ActionDelete    = "delete"
)

var ErrInvalidID = errors.New("invalid identifier")

// Same character classes the backend matches with.
var (
	emailIDRe    = regexp.MustCompile(`email_id:([a-zA-Z0-9_-]+)`)
	actionTypeRe = regexp.MustCompile(`action_type:([a-zA-Z]+)`)
	categoryRe   = regexp.MustCompile(`category:([A-Za-z0-9_-]+)`)
	replyTextRe  = regexp.MustCompile(`(?s)reply_text:([a-zA-Z0-9_-]+):(.+)`)

	idRe     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	actionRe = regexp.MustCompile(`^[a-zA-Z]+$`)
)

// Command is one message sent to the assistant.
type Command struct {
	Kind       Kind
	Text       string // KindText
	CategoryID string // KindCategory
	EmailID    string // KindSelectEmail, KindReplyText
	ActionType string // KindSelectEmail
	Body       string // KindReplyText
}

// Text wraps free text or an action label.
func Text(s string) Command { return Command{Kind: KindText, Text: s} }

// Category selects a mailbox label.
func Category(id string) (Command, error) {
	if !idRe.MatchString(id) {
		return Command{}, fmt.Errorf("category %q: %w", id, ErrInvalidID)
	}
	return Command{Kind: KindCategory, CategoryID: id}, nil
}

// SelectEmail targets one email with an action type.
func SelectEmail(emailID, actionType string) (Command, error) {
	if !idRe.MatchString(emailID) {
		return Command{}, fmt.Errorf("email id %q: %w", emailID, ErrInvalidID)
	}
	if !actionRe.MatchString(actionType) {
		return Command{}, fmt.Errorf("action type %q: %w", actionType, ErrInvalidID)
	}
	return Command{Kind: KindSelectEmail, EmailID: emailID, ActionType: actionType}, nil
}

// ReplyText carries the body of a reply to emailID.
func ReplyText(emailID, body string) (Command, error) {
	if !idRe.MatchString(emailID) {
		return Command{}, fmt.Errorf("email id %q: %w", emailID, ErrInvalidID)
	}
	return Command{Kind: KindReplyText, EmailID: emailID, Body: body}, nil
}

// String renders the wire form.
func (c Command) String() string {
	switch c.Kind {
	case KindCategory:
		return "category:" + c.CategoryID
	case KindSelectEmail:
		return "email_id:" + c.EmailID + " action_type:" + c.ActionType
	case KindReplyText:
		return "reply_text:" + c.EmailID + ":" + c.Body
	default:
		return c.Text
	}
}

// Parse recognises a wire string the way the backend does: an email
// selection wins over a category, which wins over a reply body. Anything
// else is plain text.
func Parse(s string) Command {
	if m := emailIDRe.FindStringSubmatch(s); m != nil {
		c := Command{Kind: KindSelectEmail, EmailID: m[1]}
		if a := actionTypeRe.FindStringSubmatch(s); a != nil {
			c.ActionType = a[1]
		}
		return c
	}
	if m := categoryRe.FindStringSubmatch(s); m != nil {
		return Command{Kind: KindCategory, CategoryID: m[1]}
	}
	if m := replyTextRe.FindStringSubmatch(s); m != nil {
		return Command{Kind: KindReplyText, EmailID: m[1], Body: strings.TrimSpace(m[2])}
	}
	return Text(s)
}
