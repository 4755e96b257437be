package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mailmate/internal/api"
	"mailmate/internal/channel"
	"mailmate/internal/conversation"
	"mailmate/internal/emaillist"
	"mailmate/internal/handshake"
	"mailmate/internal/model"
	"mailmate/internal/window"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type viewState int

const (
	viewLoading viewState = iota
	viewSignIn            // draggable sign-in box
	viewChat              // transcript + input
	viewBody              // single opened email
	viewHistory           // audit log of confirmed actions
	viewInbox             // latest inbox messages, read-only
)

type focusArea int

const (
	focusInput focusArea = iota
	focusItems           // buttons and email list of the latest turn
)

const historyLimit = 100

// SessionStore is the local state the UI needs.
type SessionStore interface {
	SaveSessionToken(ctx context.Context, token string) error
	LoadSessionToken(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error
	RecordAction(ctx context.Context, rec model.ActionRecord) error
	ListActions(ctx context.Context, limit int) ([]model.ActionRecord, error)
}

// Deps wires the model to the rest of the application.
type Deps struct {
	Client       *api.Client // nil when no backend is configured
	Store        SessionStore
	Channel      *channel.Channel
	Opener       handshake.Opener
	CacheSession bool
	Logger       *slog.Logger
}

type AppModel struct {
	// Core state
	deps   Deps
	logger *slog.Logger
	Err    error
	status string

	// View state machine
	view          viewState
	width, height int

	// Sign-in
	box        window.Controller
	attempt    *handshake.Controller
	cancelWait context.CancelFunc
	banner     string

	// Session
	session *api.Session
	profile model.Profile
	conv    *conversation.Controller
	waiting bool

	// Chat
	input      textinput.Model
	transcript viewport.Model
	focus      focusArea
	cursor     int
	pagers     map[string]*emaillist.Pager

	// Sub-models
	bodyViewport viewport.Model
	bodyReturn   viewState
	historyList  list.Model
	inboxList    list.Model
}

func NewAppModel(deps Deps) AppModel {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your email..."
	ti.CharLimit = 4000

	hl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	hl.Title = "Confirmed actions"
	hl.KeyMap.Quit.SetKeys("q")

	il := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	il.Title = "Latest emails"
	il.KeyMap.Quit.SetKeys("q")

	return AppModel{
		deps:         deps,
		logger:       deps.Logger,
		status:       "Loading...",
		view:         viewLoading,
		input:        ti,
		transcript:   viewport.New(0, 0),
		pagers:       map[string]*emaillist.Pager{},
		bodyViewport: viewport.New(0, 0),
		bodyReturn:   viewChat,
		historyList:  hl,
		inboxList:    il,
	}
}

func (m *AppModel) Init() tea.Cmd {
	if m.deps.Client == nil || !m.deps.CacheSession || m.deps.Store == nil {
		m.openSignIn("")
		return nil
	}
	return tea.Batch(m.checkSessionCmd(), textinput.Blink)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.transcript.Width = msg.Width
		m.transcript.Height = msg.Height - 5 // header + input + footer
		m.bodyViewport.Width = msg.Width
		m.bodyViewport.Height = msg.Height - 3
		m.historyList.SetSize(msg.Width, msg.Height-2)
		m.inboxList.SetSize(msg.Width, msg.Height-2)
		if m.view == viewSignIn && !m.box.Dragging() {
			m.centerSignIn()
		}
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.view == viewSignIn {
			m.handleSignInMouse(msg)
		}
		if m.view == viewChat {
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}
		return m, nil

	case sessionCheckedMsg:
		if msg.err != nil {
			m.logger.Info("cached session rejected", "error", msg.err)
			m.forgetSession()
			m.openSignIn("")
			return m, nil
		}
		return m, m.startChat(msg.token, msg.profile)

	case handshakeDoneMsg:
		if msg.attempt != m.attempt {
			return m, nil // stale attempt
		}
		m.attempt = nil
		m.cancelWait = nil
		if msg.err != nil {
			if errors.Is(msg.err, handshake.ErrAbandoned) {
				m.banner = "Sign-in abandoned."
			} else {
				m.banner = fmt.Sprintf("Could not start sign-in: %v", msg.err)
			}
			return m, nil
		}
		if !msg.res.Success() {
			m.banner = msg.res.Reason.Message()
			return m, nil
		}
		token := msg.res.Token
		if m.deps.CacheSession && m.deps.Store != nil {
			if err := m.deps.Store.SaveSessionToken(context.Background(), token); err != nil {
				m.logger.Warn("cache session failed", "error", err)
			}
		}
		return m, m.startChat(token, model.Profile{})

	case profileMsg:
		if msg.session != m.session {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return m.signOut("Your session has expired. Please sign in again.")
			}
			m.logger.Warn("load profile failed", "error", msg.err)
			return m, nil
		}
		m.profile = msg.profile
		return m, nil

	case turnDoneMsg:
		if msg.conv != m.conv {
			return m, nil // turn of a signed-out session
		}
		if errors.Is(msg.err, conversation.ErrBusy) {
			m.status = "Still waiting for the assistant..."
			return m, clearStatusAfter(2 * time.Second)
		}
		m.waiting = false
		if m.focus == focusInput {
			m.input.Focus()
		}
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.signOut("Your session has expired. Please sign in again.")
		}
		m.cursor = 0
		m.refreshTranscript()
		m.transcript.GotoBottom()
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Failed to load history: %v", msg.err)
			return m, clearStatusAfter(2 * time.Second)
		}
		m.historyList.SetItems(actionsToItems(msg.records))
		m.historyList.Title = fmt.Sprintf("Confirmed actions (%d)", len(msg.records))
		m.view = viewHistory
		return m, nil

	case latestLoadedMsg:
		if msg.session != m.session {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return m.signOut("Your session has expired. Please sign in again.")
			}
			m.status = fmt.Sprintf("Failed to load latest emails: %v", msg.err)
			return m, clearStatusAfter(2 * time.Second)
		}
		m.inboxList.SetItems(emailsToItems(msg.emails))
		m.inboxList.Title = fmt.Sprintf("Latest emails (%d)", len(msg.emails))
		m.view = viewInbox
		m.status = ""
		return m, nil

	case emailOpenedMsg:
		if msg.session != m.session {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return m.signOut("Your session has expired. Please sign in again.")
			}
			m.status = fmt.Sprintf("Failed to open email: %v", msg.err)
			return m, clearStatusAfter(2 * time.Second)
		}
		m.bodyViewport.SetContent(emailBody(msg.content, m.width))
		m.bodyViewport.GotoTop()
		m.view = viewBody
		m.status = ""
		return m, nil

	case statusMsg:
		if string(msg) == "" {
			m.status = ""
		}
		return m, nil
	}

	// Delegate to active sub-model
	var cmd tea.Cmd
	switch m.view {
	case viewChat:
		m.input, cmd = m.input.Update(msg)
	case viewBody:
		m.bodyViewport, cmd = m.bodyViewport.Update(msg)
	case viewHistory:
		m.historyList, cmd = m.historyList.Update(msg)
	case viewInbox:
		m.inboxList, cmd = m.inboxList.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	if key == "ctrl+c" {
		m.abandonSignIn()
		return m, tea.Quit
	}

	switch m.view {
	case viewLoading:
		if key == "q" {
			return m, tea.Quit
		}
		return m, nil

	case viewSignIn:
		switch key {
		case "q":
			m.abandonSignIn()
			return m, tea.Quit
		case "enter":
			return m, m.startSignIn()
		case "esc":
			m.abandonSignIn()
			return m, nil
		}
		return m, nil

	case viewChat:
		switch key {
		case "ctrl+x":
			if m.conv.CancelPending() {
				m.refreshTranscript()
				m.transcript.GotoBottom()
			}
			return m, nil
		case "ctrl+h":
			return m, m.loadHistoryCmd()
		case "ctrl+r":
			return m, m.loadLatestCmd()
		case "ctrl+l":
			return m.signOut("Signed out.")
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}
		if m.focus == focusItems {
			return m.handleItemKey(key)
		}
		switch key {
		case "tab":
			if len(m.items()) > 0 {
				m.focus = focusItems
				m.input.Blur()
				m.refreshTranscript()
			}
			return m, nil
		case "enter":
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case viewBody:
		switch key {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = m.bodyReturn
			return m, nil
		}
		var cmd tea.Cmd
		m.bodyViewport, cmd = m.bodyViewport.Update(msg)
		return m, cmd

	case viewHistory:
		if m.historyList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.historyList, cmd = m.historyList.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = viewChat
			return m, nil
		}
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd

	case viewInbox:
		if m.inboxList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.inboxList, cmd = m.inboxList.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = viewChat
			return m, nil
		case "enter":
			if it, ok := m.inboxList.SelectedItem().(emailItem); ok {
				return m, m.openEmailCmd(it.ID)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.inboxList, cmd = m.inboxList.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *AppModel) handleItemKey(key string) (tea.Model, tea.Cmd) {
	items := m.items()
	if len(items) == 0 {
		m.blurItems()
		return m, nil
	}
	m.cursor = min(m.cursor, len(items)-1)

	switch key {
	case "tab", "esc":
		m.blurItems()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "m":
		if p := m.latestPager(); p != nil {
			p.ShowMore()
		}
	case "o":
		if it := items[m.cursor]; it.kind == itemEmail {
			return m, m.openEmailCmd(it.email.ID)
		}
	case "enter":
		return m, m.activate(items[m.cursor])
	}
	m.refreshTranscript()
	return m, nil
}

func (m *AppModel) blurItems() {
	m.focus = focusInput
	m.cursor = 0
	if !m.waiting {
		m.input.Focus()
	}
	m.refreshTranscript()
}

// Sign-in

func (m *AppModel) openSignIn(banner string) {
	m.view = viewSignIn
	m.banner = banner
	m.status = ""
	m.centerSignIn()
}

func (m *AppModel) centerSignIn() {
	box := m.signInBox()
	m.box.Open(m.width, m.height, boxWidth(box), boxHeight(box))
}

func (m *AppModel) startSignIn() tea.Cmd {
	if m.deps.Client == nil || m.attempt != nil {
		return nil
	}
	ctrl := handshake.NewController(m.deps.Channel, m.deps.Opener, nil, m.logger)
	ctx, cancel := context.WithCancel(context.Background())
	m.attempt = ctrl
	m.cancelWait = cancel
	m.banner = ""
	req := handshake.Request{TargetURL: m.deps.Client.LoginURL()}

	return func() tea.Msg {
		if err := ctrl.Start(req); err != nil {
			cancel()
			return handshakeDoneMsg{attempt: ctrl, err: err}
		}
		res, err := ctrl.Wait(ctx)
		cancel()
		return handshakeDoneMsg{attempt: ctrl, res: res, err: err}
	}
}

func (m *AppModel) abandonSignIn() {
	if m.cancelWait != nil {
		m.cancelWait()
	}
}

func (m *AppModel) handleSignInMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		box := m.signInBox()
		if msg.Button == tea.MouseButtonLeft && m.box.Contains(msg.X, msg.Y, boxWidth(box), boxHeight(box)) {
			m.box.BeginDrag(msg.X, msg.Y)
		}
	case tea.MouseActionMotion:
		m.box.DragTo(msg.X, msg.Y)
	case tea.MouseActionRelease:
		m.box.EndDrag()
	}
}

// Session

func (m *AppModel) startChat(token string, profile model.Profile) tea.Cmd {
	m.session = m.deps.Client.Session(token)
	m.profile = profile
	m.conv = conversation.New(m.session,
		conversation.WithLogger(m.logger),
		conversation.WithJournal(m.deps.Store),
	)
	m.pagers = map[string]*emaillist.Pager{}
	m.view = viewChat
	m.focus = focusInput
	m.cursor = 0
	m.status = ""
	m.waiting = true
	m.input.Blur()
	m.refreshTranscript()

	conv := m.conv
	cmds := []tea.Cmd{func() tea.Msg {
		return turnDoneMsg{conv: conv, err: conv.Greet(context.Background())}
	}}
	if profile.Email == "" {
		cmds = append(cmds, m.profileCmd())
	}
	return tea.Batch(cmds...)
}

func (m *AppModel) forgetSession() {
	if m.deps.Store == nil {
		return
	}
	if err := m.deps.Store.ClearSession(context.Background()); err != nil {
		m.logger.Warn("clear session failed", "error", err)
	}
}

func (m *AppModel) signOut(banner string) (tea.Model, tea.Cmd) {
	m.forgetSession()
	m.session = nil
	m.conv = nil
	m.profile = model.Profile{}
	m.waiting = false
	m.input.Reset()
	m.openSignIn(banner)
	return m, nil
}

// Chat

func (m *AppModel) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return nil
	}
	m.input.Reset()
	conv := m.conv
	return m.runTurn(func(ctx context.Context) error { return conv.Submit(ctx, text) })
}

func (m *AppModel) activate(it chatItem) tea.Cmd {
	if m.waiting {
		return nil
	}
	conv := m.conv
	switch it.kind {
	case itemAction:
		return m.runTurn(func(ctx context.Context) error { return conv.ClickAction(ctx, it.label) })
	case itemCategory:
		return m.runTurn(func(ctx context.Context) error { return conv.ClickCategory(ctx, it.category) })
	case itemEmail:
		actionType := it.actionType
		if actionType == "" {
			actionType = "read"
		}
		return m.runTurn(func(ctx context.Context) error { return conv.SelectEmail(ctx, it.email, actionType) })
	case itemMore:
		if p := m.latestPager(); p != nil {
			p.ShowMore()
		}
		m.refreshTranscript()
	}
	return nil
}

// runTurn disables input and runs one conversation call off the UI loop.
func (m *AppModel) runTurn(fn func(ctx context.Context) error) tea.Cmd {
	m.waiting = true
	m.focus = focusInput
	m.input.Blur()
	m.refreshTranscript()
	m.transcript.GotoBottom()
	conv := m.conv
	return func() tea.Msg {
		return turnDoneMsg{conv: conv, err: fn(context.Background())}
	}
}

// Commands

func (m *AppModel) checkSessionCmd() tea.Cmd {
	client := m.deps.Client
	st := m.deps.Store
	return func() tea.Msg {
		ctx := context.Background()
		token, err := st.LoadSessionToken(ctx)
		if err != nil {
			return sessionCheckedMsg{err: err}
		}
		if token == "" {
			return sessionCheckedMsg{err: errors.New("no cached session")}
		}
		profile, err := client.Session(token).GetUserProfile(ctx)
		return sessionCheckedMsg{token: token, profile: profile, err: err}
	}
}

func (m *AppModel) profileCmd() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		p, err := s.GetUserProfile(context.Background())
		return profileMsg{session: s, profile: p, err: err}
	}
}

func (m *AppModel) loadHistoryCmd() tea.Cmd {
	st := m.deps.Store
	if st == nil {
		return nil
	}
	return func() tea.Msg {
		recs, err := st.ListActions(context.Background(), historyLimit)
		return historyLoadedMsg{records: recs, err: err}
	}
}

func (m *AppModel) loadLatestCmd() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	m.status = "Loading latest emails..."
	return func() tea.Msg {
		emails, err := s.LatestEmails(context.Background())
		return latestLoadedMsg{session: s, emails: emails, err: err}
	}
}

func (m *AppModel) openEmailCmd(id string) tea.Cmd {
	s := m.session
	m.bodyReturn = m.view
	m.status = "Loading email..."
	return func() tea.Msg {
		c, err := s.GetEmailByID(context.Background(), id)
		return emailOpenedMsg{session: s, content: c, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg("")
	})
}

// View renders the appropriate view based on current state.
func (m *AppModel) View() string {
	if m.Err != nil {
		return "Error: " + m.Err.Error() + "\n"
	}

	var b strings.Builder

	switch m.view {
	case viewLoading:
		b.WriteString(m.status)
		b.WriteString("\n")
		return b.String()
	case viewSignIn:
		b.WriteString(m.signInView())
	case viewChat:
		b.WriteString(m.chatView())
	case viewBody:
		b.WriteString(m.bodyViewport.View())
		b.WriteString("\n")
		b.WriteString(bodyFooter())
	case viewHistory:
		b.WriteString(m.historyList.View())
		b.WriteString("\n")
		b.WriteString(historyFooter())
	case viewInbox:
		b.WriteString(m.inboxList.View())
		b.WriteString("\n")
		b.WriteString(inboxFooter())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}

	return b.String()
}
