package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmate/internal/model"
)

type fakeBackend struct {
	responses  []model.ChatResponse
	sendErr    error
	confirm    model.ConfirmResponse
	confirmErr error
	greeting   model.Greeting

	sent      []string
	confirmed []model.ConfirmRequest

	// block, when set, is waited on inside SendMessage.
	block chan struct{}
}

func (f *fakeBackend) SendMessage(_ context.Context, text string) (model.ChatResponse, error) {
	f.sent = append(f.sent, text)
	if f.block != nil {
		<-f.block
	}
	if f.sendErr != nil {
		return model.ChatResponse{}, f.sendErr
	}
	if len(f.responses) == 0 {
		return model.ChatResponse{Reply: "ok"}, nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

func (f *fakeBackend) ConfirmAction(_ context.Context, req model.ConfirmRequest) (model.ConfirmResponse, error) {
	f.confirmed = append(f.confirmed, req)
	return f.confirm, f.confirmErr
}

func (f *fakeBackend) GetGreeting(context.Context) (model.Greeting, error) {
	return f.greeting, nil
}

type fakeJournal struct {
	records []model.ActionRecord
}

func (j *fakeJournal) RecordAction(_ context.Context, rec model.ActionRecord) error {
	j.records = append(j.records, rec)
	return nil
}

func last(c *Controller) Message {
	msgs := c.Messages()
	return msgs[len(msgs)-1]
}

func TestDeleteCancelled(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{responses: []model.ChatResponse{
		{Reply: "Click the email you want to delete:", Emails: []model.Email{{ID: "abc123", Subject: "Hi"}}, ActionType: "delete", ShowEmailList: true},
		{Reply: "Are you sure?", EmailID: "abc123", ActionRequired: model.ActionConfirmDelete},
	}}
	c := New(b)

	require.NoError(t, c.ClickAction(ctx, LabelDeleteOrganize))
	assert.Equal(t, "Delete & Organize", b.sent[0])
	assert.Equal(t, "delete", last(c).ActionType)
	assert.Nil(t, c.Pending())

	require.NoError(t, c.SelectEmail(ctx, model.Email{ID: "abc123", Subject: "Hi"}, "delete"))
	assert.Equal(t, "email_id:abc123 action_type:delete", b.sent[1])
	assert.Equal(t, AwaitingDeleteConfirmation{EmailID: "abc123"}, c.Pending())

	require.NoError(t, c.Submit(ctx, "cancel"))
	assert.Nil(t, c.Pending())
	assert.Equal(t, "Action cancelled.", last(c).Text)
	assert.Empty(t, b.confirmed)
	assert.Len(t, b.sent, 2)
}

func TestReplyFlow(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{
		responses: []model.ChatResponse{
			{Reply: "Please type your reply below.", EmailID: "x", ActionRequired: model.ActionComposeReply},
			{Reply: "Would you like to send this reply?", EmailID: "x", GeneratedReply: "Thanks, will do.", ActionRequired: model.ActionConfirmSend},
		},
		confirm: model.ConfirmResponse{Reply: "Successfully sent your reply!", Status: "success"},
	}
	j := &fakeJournal{}
	c := New(b, WithJournal(j))

	require.NoError(t, c.SelectEmail(ctx, model.Email{ID: "x"}, "reply"))
	assert.Equal(t, AwaitingReplyBody{EmailID: "x"}, c.Pending())

	require.NoError(t, c.Submit(ctx, "Thanks, will do."))
	assert.Equal(t, "reply_text:x:Thanks, will do.", b.sent[1])
	assert.Equal(t, AwaitingSendConfirmation{EmailID: "x", DraftText: "Thanks, will do."}, c.Pending())
	assert.Equal(t, "Thanks, will do.", last(c).Draft)

	require.NoError(t, c.Submit(ctx, "send"))
	require.Len(t, b.confirmed, 1)
	assert.Equal(t, model.ConfirmRequest{
		Action:       "send_reply",
		EmailID:      "x",
		ReplyText:    "Thanks, will do.",
		Confirmation: "send",
	}, b.confirmed[0])
	assert.Nil(t, c.Pending())
	assert.Equal(t, "Successfully sent your reply!", last(c).Text)

	require.Len(t, j.records, 1)
	assert.Equal(t, "send_reply", j.records[0].Action)
	assert.Equal(t, "x", j.records[0].EmailID)
	assert.Equal(t, "success", j.records[0].Status)
}

func TestUnrecognizedKeepsPending(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{responses: []model.ChatResponse{
		{Reply: "Are you sure?", EmailID: "abc123", ActionRequired: model.ActionConfirmDelete},
		{Reply: "You have 3 unread emails."},
	}}
	c := New(b)

	require.NoError(t, c.Submit(ctx, "delete the newsletter"))
	require.Equal(t, AwaitingDeleteConfirmation{EmailID: "abc123"}, c.Pending())

	require.NoError(t, c.Submit(ctx, "maybe later"))
	assert.Equal(t, "maybe later", b.sent[1])
	assert.Equal(t, AwaitingDeleteConfirmation{EmailID: "abc123"}, c.Pending())
	assert.Contains(t, last(c).Text, "still waiting")
	assert.Empty(t, b.confirmed)
}

func TestUnrecognizedSupersededByBackend(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{responses: []model.ChatResponse{
		{Reply: "Are you sure?", EmailID: "abc123", ActionRequired: model.ActionConfirmDelete},
		{Reply: "Reply to this one?", EmailID: "def456", ActionRequired: model.ActionComposeReply},
	}}
	c := New(b)

	require.NoError(t, c.Submit(ctx, "delete it"))
	require.NoError(t, c.Submit(ctx, "actually reply to the other email"))
	assert.Equal(t, AwaitingReplyBody{EmailID: "def456"}, c.Pending())
	assert.Equal(t, "Reply to this one?", last(c).Text)
}

func TestConfirmDeleteClearsOnFailure(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{
		responses:  []model.ChatResponse{{Reply: "Are you sure?", EmailID: "abc123", ActionRequired: model.ActionConfirmDelete}},
		confirmErr: errors.New("connection reset"),
	}
	j := &fakeJournal{}
	c := New(b, WithJournal(j))

	require.NoError(t, c.Submit(ctx, "delete abc123"))
	err := c.Submit(ctx, "Yes please")
	require.Error(t, err)

	require.Len(t, b.confirmed, 1)
	assert.Equal(t, "delete", b.confirmed[0].Action)
	assert.Equal(t, "abc123", b.confirmed[0].EmailID)
	assert.Empty(t, b.confirmed[0].ReplyText)
	assert.Nil(t, c.Pending())

	m := last(c)
	assert.True(t, m.Failed)
	assert.Equal(t, "Sorry, something went wrong: connection reset", m.Text)
	require.Len(t, j.records, 1)
	assert.Equal(t, "error", j.records[0].Status)
}

func TestNetworkErrorPreservesPending(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{responses: []model.ChatResponse{
		{Reply: "Type your reply.", EmailID: "x", ActionRequired: model.ActionComposeReply},
	}}
	c := New(b)
	require.NoError(t, c.Submit(ctx, "reply to x"))

	b.sendErr = errors.New("timeout")
	require.Error(t, c.Submit(ctx, "Sounds good"))
	assert.Equal(t, AwaitingReplyBody{EmailID: "x"}, c.Pending())
	assert.True(t, last(c).Failed)

	// The conversation stays usable.
	b.sendErr = nil
	assert.NoError(t, c.Submit(ctx, "Sounds good"))
}

func TestGeneralDispatchClearsPending(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{responses: []model.ChatResponse{
		{Reply: "Type your reply.", EmailID: "x", ActionRequired: model.ActionComposeReply},
		{Reply: "Preview", EmailID: "x", GeneratedReply: "hi", ActionRequired: model.ActionConfirmSend},
	}}
	c := New(b)
	require.NoError(t, c.Submit(ctx, "reply to x"))
	require.NoError(t, c.Submit(ctx, "hi"))
	require.IsType(t, AwaitingSendConfirmation{}, c.Pending())

	// Buttons are general dispatch; no declaration clears the draft.
	require.NoError(t, c.ClickAction(ctx, LabelDailyDigest))
	assert.Nil(t, c.Pending())
	assert.Empty(t, b.confirmed)
}

func TestBusyRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{block: make(chan struct{})}
	c := New(b)

	done := make(chan error, 1)
	go func() { done <- c.Submit(ctx, "first") }()

	require.Eventually(t, c.Busy, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.Submit(ctx, "second"), ErrBusy)
	assert.ErrorIs(t, c.ClickAction(ctx, LabelSummarize), ErrBusy)
	assert.False(t, c.CancelPending())

	close(b.block)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, []string{"first"}, b.sent)
}

func TestCancelPending(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{responses: []model.ChatResponse{
		{Reply: "Type your reply.", EmailID: "x", ActionRequired: model.ActionComposeReply},
	}}
	c := New(b)

	assert.False(t, c.CancelPending())
	require.NoError(t, c.Submit(ctx, "reply to x"))
	assert.True(t, c.CancelPending())
	assert.Nil(t, c.Pending())
	assert.Equal(t, "Action cancelled.", last(c).Text)
}

func TestGreetAndCategories(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{
		greeting: model.Greeting{Reply: "Hello Ada!"},
		responses: []model.ChatResponse{
			{Reply: "Select a category", Categories: []model.Category{{ID: "SPAM", Label: "Spam"}}, ShowCategoryButtons: true},
			{Reply: "Top 5 emails in Spam", Emails: []model.Email{{ID: "s1"}}, ActionType: "read", ShowEmailList: true},
		},
	}
	c := New(b)

	require.NoError(t, c.Greet(ctx))
	g := last(c)
	assert.Equal(t, RoleAssistant, g.Role)
	assert.Equal(t, DefaultActions, g.Actions)

	require.NoError(t, c.ClickAction(ctx, LabelCategorize))
	assert.Equal(t, []model.Category{{ID: "SPAM", Label: "Spam"}}, last(c).Categories)

	require.NoError(t, c.ClickCategory(ctx, model.Category{ID: "SPAM", Label: "Spam"}))
	assert.Equal(t, "category:SPAM", b.sent[1])
	assert.Equal(t, "read", last(c).ActionType)

	msgs := c.Messages()
	assert.Len(t, msgs, 5)
	assert.Equal(t, RoleUser, msgs[3].Role)
	assert.Equal(t, "Spam", msgs[3].Text)
}

func TestActionTypeFor(t *testing.T) {
	assert.Equal(t, "read", ActionTypeFor("View & Read"))
	assert.Equal(t, "summarize", ActionTypeFor("Summarize Emails"))
	assert.Equal(t, "reply", ActionTypeFor("Reply & Compose"))
	assert.Equal(t, "delete", ActionTypeFor("Delete & Organize"))
	assert.Empty(t, ActionTypeFor("Daily Digest"))
}
