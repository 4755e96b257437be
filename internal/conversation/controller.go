// Package conversation owns the chat transcript and the single pending
// mutating action, and routes each user input through confirmation
// handling, reply composition or general dispatch.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mailmate/internal/command"
	"mailmate/internal/model"

	"github.com/google/uuid"
)

// ErrBusy is returned when input arrives while a backend call is outstanding.
var ErrBusy = errors.New("a request is already in progress")

const (
	confirmSendReply = "send_reply"
	confirmDelete    = "delete"

	cancelledText = "Action cancelled."
)

// Backend is the assistant's command surface, already bound to a session token.
type Backend interface {
	SendMessage(ctx context.Context, text string) (model.ChatResponse, error)
	ConfirmAction(ctx context.Context, req model.ConfirmRequest) (model.ConfirmResponse, error)
	GetGreeting(ctx context.Context) (model.Greeting, error)
}

// Journal records confirmed actions.
type Journal interface {
	RecordAction(ctx context.Context, rec model.ActionRecord) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithJournal records every confirmed action to j.
func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

// Controller is one conversation. Calls are strictly sequential: while a
// backend call is outstanding every other operation returns ErrBusy.
type Controller struct {
	backend Backend
	journal Journal
	logger  *slog.Logger

	mu       sync.Mutex
	messages []Message
	pending  PendingAction
	busy     bool
}

func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{backend: backend, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Messages returns a snapshot of the transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Pending returns the outstanding action, or nil.
func (c *Controller) Pending() PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Busy reports whether a backend call is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) begin(userText string) (PendingAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, ErrBusy
	}
	c.busy = true
	if userText != "" {
		c.messages = append(c.messages, userMessage(userText))
	}
	return c.pending, nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) appendLocked(msgs ...Message) {
	c.messages = append(c.messages, msgs...)
}

func (c *Controller) setPendingLocked(p PendingAction) {
	if Describe(p) != Describe(c.pending) {
		c.logger.Info("pending action changed", "from", Describe(c.pending), "to", Describe(p))
	}
	c.pending = p
}

// Greet opens the conversation with the assistant's greeting and the
// default action buttons.
func (c *Controller) Greet(ctx context.Context) error {
	if _, err := c.begin(""); err != nil {
		return err
	}
	defer c.end()

	g, err := c.backend.GetGreeting(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("get greeting failed", "error", err)
		m := failureMessage(err)
		m.Actions = DefaultActions
		c.appendLocked(m)
		return err
	}
	m := assistantMessage(g.Reply)
	m.Actions = DefaultActions
	c.appendLocked(m)
	return nil
}

// Submit handles one line typed by the user.
func (c *Controller) Submit(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	current, err := c.begin(input)
	if err != nil {
		return err
	}
	defer c.end()

	switch p := current.(type) {
	case AwaitingReplyBody:
		cmd, err := command.ReplyText(p.EmailID, input)
		if err != nil {
			c.fail(err)
			return err
		}
		return c.dispatch(ctx, cmd.String(), "", false)

	case AwaitingSendConfirmation, AwaitingDeleteConfirmation:
		switch Classify(input) {
		case Affirm:
			return c.confirm(ctx, p, input)
		case Deny:
			c.mu.Lock()
			c.setPendingLocked(nil)
			c.appendLocked(assistantMessage(cancelledText))
			c.mu.Unlock()
			return nil
		default:
			err := c.dispatch(ctx, input, "", true)
			c.remind()
			return err
		}

	default:
		return c.dispatch(ctx, input, "", false)
	}
}

// ClickAction sends an action button's label and tags the answer with the
// list verb the label stands for.
func (c *Controller) ClickAction(ctx context.Context, label string) error {
	if _, err := c.begin(label); err != nil {
		return err
	}
	defer c.end()
	return c.dispatch(ctx, command.Text(label).String(), ActionTypeFor(label), false)
}

// ClickCategory asks for the emails under a mailbox label.
func (c *Controller) ClickCategory(ctx context.Context, cat model.Category) error {
	cmd, err := command.Category(cat.ID)
	if err != nil {
		return err
	}
	text := cat.Label
	if text == "" {
		text = cat.ID
	}
	if _, err := c.begin(text); err != nil {
		return err
	}
	defer c.end()
	return c.dispatch(ctx, cmd.String(), command.ActionRead, false)
}

// SelectEmail applies actionType to an email picked from a list.
func (c *Controller) SelectEmail(ctx context.Context, email model.Email, actionType string) error {
	cmd, err := command.SelectEmail(email.ID, actionType)
	if err != nil {
		return err
	}
	text := email.Subject
	if text == "" {
		text = email.ID
	}
	if _, err := c.begin(fmt.Sprintf("%s: %s", actionType, text)); err != nil {
		return err
	}
	defer c.end()
	return c.dispatch(ctx, cmd.String(), actionType, false)
}

// CancelPending drops the outstanding action without asking the backend.
// It reports whether anything was cancelled.
func (c *Controller) CancelPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy || c.pending == nil {
		return false
	}
	c.setPendingLocked(nil)
	c.appendLocked(assistantMessage(cancelledText))
	return true
}

func (c *Controller) dispatch(ctx context.Context, text, actionType string, preserve bool) error {
	resp, err := c.backend.SendMessage(ctx, text)
	if err != nil {
		c.logger.Error("send message failed", "error", err)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPendingLocked(Next(c.pending, resp, preserve))
	c.appendLocked(responseMessage(resp, actionType))
	return nil
}

func (c *Controller) confirm(ctx context.Context, p PendingAction, input string) error {
	req := model.ConfirmRequest{EmailID: p.Target(), Confirmation: input}
	switch p := p.(type) {
	case AwaitingSendConfirmation:
		req.Action = confirmSendReply
		req.ReplyText = p.DraftText
	case AwaitingDeleteConfirmation:
		req.Action = confirmDelete
	}

	resp, err := c.backend.ConfirmAction(ctx, req)

	rec := model.ActionRecord{
		ID:        uuid.NewString(),
		Action:    req.Action,
		EmailID:   req.EmailID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	c.mu.Lock()
	c.setPendingLocked(nil)
	if err != nil {
		c.logger.Error("confirm action failed", "action", req.Action, "email_id", req.EmailID, "error", err)
		rec.Status = "error"
		rec.Reply = err.Error()
		c.appendLocked(failureMessage(err))
	} else {
		rec.Status = resp.Status
		if rec.Status == "" {
			rec.Status = "success"
		}
		rec.Reply = resp.Reply
		c.appendLocked(assistantMessage(resp.Reply))
	}
	c.mu.Unlock()

	if c.journal != nil {
		if jerr := c.journal.RecordAction(ctx, rec); jerr != nil {
			c.logger.Warn("record action failed", "error", jerr)
		}
	}
	return err
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.appendLocked(failureMessage(err))
	c.mu.Unlock()
}

// remind repeats the outstanding confirmation prompt after an unrelated turn.
func (c *Controller) remind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.pending.(type) {
	case AwaitingSendConfirmation:
		c.appendLocked(assistantMessage("Your reply is still waiting. Type 'send' to send it or 'cancel' to discard it."))
	case AwaitingDeleteConfirmation:
		c.appendLocked(assistantMessage("The delete is still waiting. Type 'yes' to delete the email or 'no' to keep it."))
	}
}
