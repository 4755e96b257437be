// Package channel validates and routes cross-context messages.
//
// A Channel accepts only self-issued messages: the declared origin must equal
// the application's own origin and the type must be one of the handshake
// types. Anything else is dropped without being surfaced, since unrelated
// traffic may reach the same endpoint.
package channel

import (
	"errors"
	"log/slog"
	"sync"
)

// Type tags a cross-context message.
type Type string

const (
	TypeAuthSuccess Type = "auth-success"
	TypeAuthError   Type = "auth-error"
)

var (
	// ErrOriginMismatch means the message was not issued by this application.
	ErrOriginMismatch = errors.New("origin mismatch")
	// ErrUnrecognizedType means the message carries an unknown type tag.
	ErrUnrecognizedType = errors.New("unrecognized message type")
	// ErrAlreadySubscribed is returned when a listener is already live.
	ErrAlreadySubscribed = errors.New("listener already subscribed")
)

// Message is the wire shape of a cross-context message.
type Message struct {
	Origin string `json:"-"`
	Type   Type   `json:"type"`
	Token  string `json:"token,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Channel routes accepted messages to a single one-shot listener.
type Channel struct {
	origin string
	logger *slog.Logger

	mu       sync.Mutex
	listener func(Message)
	seq      uint64
}

// New creates a Channel for the given self origin (e.g. "http://127.0.0.1:3000").
func New(selfOrigin string, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{origin: selfOrigin, logger: logger}
}

// Origin returns the application's own origin.
func (c *Channel) Origin() string { return c.origin }

// Accept reports whether msg may be handed to application logic.
func (c *Channel) Accept(msg Message) error {
	if msg.Origin != c.origin {
		return ErrOriginMismatch
	}
	switch msg.Type {
	case TypeAuthSuccess, TypeAuthError:
		return nil
	default:
		return ErrUnrecognizedType
	}
}

// Subscribe registers fn as the live listener. The listener is removed before
// it is invoked, so it fires at most once.
func (c *Channel) Subscribe(fn func(Message)) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listener != nil {
		return nil, ErrAlreadySubscribed
	}
	c.seq++
	c.listener = fn
	return &Subscription{ch: c, seq: c.seq}, nil
}

// Post validates msg and delivers it to the live listener. It reports whether
// the message was delivered; rejected or unclaimed messages are dropped.
func (c *Channel) Post(msg Message) bool {
	if err := c.Accept(msg); err != nil {
		c.logger.Debug("dropping message", "origin", msg.Origin, "type", msg.Type, "reason", err)
		return false
	}

	c.mu.Lock()
	fn := c.listener
	c.listener = nil
	c.mu.Unlock()

	if fn == nil {
		c.logger.Debug("no listener for message", "type", msg.Type)
		return false
	}
	fn(msg)
	return true
}

// Subscription is the handle for a registered listener.
type Subscription struct {
	ch  *Channel
	seq uint64
}

// Release deregisters the listener if it is still the live one. Safe to call
// more than once and after delivery.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	if s.ch.seq == s.seq {
		s.ch.listener = nil
	}
}
