// Package handshake correlates an authentication result produced in a
// secondary browsing context with the instance that started the sign-in.
//
// The browser is the secondary context. It lands on the loopback
// CallbackServer, which posts the result to the shared channel.Channel; the
// Controller that armed the channel resolves exactly once.
package handshake

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mailmate/internal/channel"

	"github.com/google/uuid"
)

// State is the lifecycle position of one sign-in attempt.
type State int

const (
	StateIdle State = iota
	StateAwaitingWindow
	StateAwaitingResult
	StateResolved
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingWindow:
		return "awaiting-window"
	case StateAwaitingResult:
		return "awaiting-result"
	case StateResolved:
		return "resolved"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Kind tags a Result.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Result is what the secondary context produced.
type Result struct {
	Kind   Kind
	Token  string
	Reason ErrorCode
}

// Success reports whether the handshake produced a session token.
func (r Result) Success() bool { return r.Kind == KindSuccess }

func resultFromMessage(msg channel.Message) Result {
	if msg.Type == channel.TypeAuthSuccess {
		return Result{Kind: KindSuccess, Token: msg.Token}
	}
	return Result{Kind: KindError, Reason: ErrorCode(msg.Error)}
}

func (r Result) message() channel.Message {
	if r.Success() {
		return channel.Message{Type: channel.TypeAuthSuccess, Token: r.Token}
	}
	return channel.Message{Type: channel.TypeAuthError, Error: string(r.Reason)}
}

// Request starts a sign-in attempt at TargetURL (the backend's login entry point).
type Request struct {
	TargetURL string
}

// Opener opens the secondary browsing context.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }

// Upstream is the reference to the instance that opened this one, if any.
type Upstream interface {
	Forward(ctx context.Context, r Result) error
}

// Resolution is the final outcome of an attempt.
type Resolution struct {
	Result
	// Relayed is set when the result was forwarded upstream; the caller
	// is expected to close itself.
	Relayed  bool
	RelayErr error
}

const forwardTimeout = 10 * time.Second

// Controller owns one sign-in attempt. It is single-use.
type Controller struct {
	ch       *channel.Channel
	opener   Opener
	upstream Upstream
	logger   *slog.Logger
	id       string

	mu    sync.Mutex
	state State
	sub   *channel.Subscription
	res   Resolution
	done  chan struct{}
}

// NewController creates a controller. upstream may be nil for a top-level instance.
func NewController(ch *channel.Channel, opener Opener, upstream Upstream, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Controller{
		ch:       ch,
		opener:   opener,
		upstream: upstream,
		logger:   logger.With("attempt", id),
		id:       id,
		done:     make(chan struct{}),
	}
}

// ID identifies the attempt in logs.
func (c *Controller) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start arms the channel and opens the secondary context.
func (c *Controller) Start(req Request) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	sub, err := c.ch.Subscribe(c.resolve)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("subscribe: %w", err)
	}
	c.sub = sub
	c.state = StateAwaitingWindow
	c.mu.Unlock()

	c.logger.Info("opening sign-in window", "url", req.TargetURL)
	if err := c.opener.Open(req.TargetURL); err != nil {
		c.mu.Lock()
		if c.state == StateAwaitingWindow {
			c.sub.Release()
			c.sub = nil
			c.state = StateIdle
		}
		c.mu.Unlock()
		return fmt.Errorf("open sign-in window: %w", err)
	}

	// No load signal exists for the secondary context, so move on at once.
	c.mu.Lock()
	if c.state == StateAwaitingWindow {
		c.state = StateAwaitingResult
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) resolve(msg channel.Message) {
	c.mu.Lock()
	if c.state == StateResolved || c.state == StateAbandoned || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.state = StateResolved
	c.sub = nil
	res := Resolution{Result: resultFromMessage(msg)}
	c.mu.Unlock()

	c.logger.Info("sign-in resolved", "kind", res.Kind, "reason", res.Reason)

	if c.upstream != nil {
		ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
		err := c.upstream.Forward(ctx, res.Result)
		cancel()
		if err != nil {
			c.logger.Error("forward result upstream failed", "error", err)
			res.RelayErr = err
		} else {
			res.Relayed = true
		}
	}

	c.mu.Lock()
	c.res = res
	c.mu.Unlock()
	close(c.done)
}

// Wait blocks until the attempt resolves. There is no timeout; cancelling
// ctx abandons the attempt and releases the channel.
func (c *Controller) Wait(ctx context.Context) (Resolution, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.res, nil
	case <-ctx.Done():
		if !c.abandon() {
			// Resolution won the race with cancellation.
			<-c.done
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.res, nil
		}
		return Resolution{}, fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())
	}
}

// Abandon gives up an unresolved attempt. It is a no-op once resolved.
func (c *Controller) Abandon() { c.abandon() }

func (c *Controller) abandon() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateResolved:
		return false
	case StateAbandoned:
		return true
	}
	c.sub.Release()
	c.sub = nil
	c.state = StateAbandoned
	c.logger.Info("sign-in abandoned")
	return true
}
