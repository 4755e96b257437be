package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmate/internal/model"
)

func newSession(t *testing.T, h http.HandlerFunc) *Session {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return c.Session("jwt-abc")
}

func TestNewValidatesURL(t *testing.T) {
	_, err := New("localhost:8000")
	assert.Error(t, err)
	_, err = New("ftp://example.com")
	assert.Error(t, err)

	c, err := New("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/auth/login", c.LoginURL())
}

func TestSendMessage(t *testing.T) {
	s := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chatbot/message", r.URL.Path)
		assert.Equal(t, "Bearer jwt-abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "email_id:abc123 action_type:delete", in["message"])

		io.WriteString(w, `{"reply":"Are you sure?","email_id":"abc123","action_required":"confirm_delete"}`)
	})

	resp, err := s.SendMessage(context.Background(), "email_id:abc123 action_type:delete")
	require.NoError(t, err)
	assert.Equal(t, model.ChatResponse{
		Reply:          "Are you sure?",
		EmailID:        "abc123",
		ActionRequired: model.ActionConfirmDelete,
	}, resp)
}

func TestSendMessageAttachments(t *testing.T) {
	s := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"reply": "Click the email you want to read:",
			"emails": [{"id": "m1", "subject": "Hello", "from": "Ada <ada@example.com>", "email_number": 1}],
			"action_type": "read",
			"show_email_list": true,
			"categories": [{"id": "SPAM", "label": "Spam"}],
			"email_content": {"from": "a", "to": "b", "date": "c", "subject": "d", "body": "e"}
		}`)
	})

	resp, err := s.SendMessage(context.Background(), "View & Read")
	require.NoError(t, err)
	require.Len(t, resp.Emails, 1)
	assert.Equal(t, 1, resp.Emails[0].OrdinalNumber)
	assert.Equal(t, "read", resp.ActionType)
	assert.True(t, resp.ShowEmailList)
	assert.Equal(t, []model.Category{{ID: "SPAM", Label: "Spam"}}, resp.Categories)
	require.NotNil(t, resp.EmailContent)
	assert.Equal(t, "e", resp.EmailContent.Body)
}

func TestConfirmAction(t *testing.T) {
	s := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chatbot/confirm-action", r.URL.Path)
		var in map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, map[string]any{
			"action":       "send_reply",
			"email_id":     "x",
			"reply_text":   "Thanks, will do.",
			"confirmation": "send",
		}, in)
		io.WriteString(w, `{"reply":"sent","status":"success"}`)
	})

	resp, err := s.ConfirmAction(context.Background(), model.ConfirmRequest{
		Action: "send_reply", EmailID: "x", ReplyText: "Thanks, will do.", Confirmation: "send",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmResponse{Reply: "sent", Status: "success"}, resp)
}

func TestUnauthorized(t *testing.T) {
	s := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Invalid token: Signature has expired"}`)
	})

	_, err := s.GetUserProfile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "Invalid token: Signature has expired", se.Detail)
}

func TestServerError(t *testing.T) {
	s := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := s.GetGreeting(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "backend returned 500: boom", err.Error())
}

func TestResourceEndpoints(t *testing.T) {
	var calls []string
	s := newSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/gmail/email/m1":
			io.WriteString(w, `{"id":"m1","from":"a@example.com","to":"me@example.com","subject":"Hi","date":"Mon","body":"<p>hey</p>"}`)
		case "/gmail/latest":
			io.WriteString(w, `[{"id":"m1","subject":"Hi","from":"a@example.com"}]`)
		case "/auth/profile":
			io.WriteString(w, `{"email":"ada@example.com","name":"Ada Lovelace"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	content, err := s.GetEmailByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "<p>hey</p>", content.Body)

	latest, err := s.LatestEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Email{{ID: "m1", Subject: "Hi", From: "a@example.com"}}, latest)

	p, err := s.GetUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.DisplayName())

	assert.Equal(t, []string{
		"GET /gmail/email/m1",
		"GET /gmail/latest",
		"GET /auth/profile",
	}, calls)
}
