package tui

import (
	"mailmate/internal/api"
	"mailmate/internal/conversation"
	"mailmate/internal/handshake"
	"mailmate/internal/model"
)

// Async message types for Bubble Tea commands.

type sessionCheckedMsg struct {
	token   string
	profile model.Profile
	err     error
}

type handshakeDoneMsg struct {
	attempt *handshake.Controller
	res     handshake.Resolution
	err     error
}

type profileMsg struct {
	session *api.Session
	profile model.Profile
	err     error
}

type turnDoneMsg struct {
	conv *conversation.Controller
	err  error
}

type historyLoadedMsg struct {
	records []model.ActionRecord
	err     error
}

type latestLoadedMsg struct {
	session *api.Session
	emails  []model.Email
	err     error
}

type emailOpenedMsg struct {
	session *api.Session
	content model.EmailContent
	err     error
}

type statusMsg string
