package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"mailmate/internal/channel"
)

// CallbackServer is the landing page the backend redirects the browser to
// once sign-in completes. It turns the redirect into a channel message.
//
//	GET  /dashboard?token=...  -> auth-success
//	GET  /login?error=...      -> auth-error
//	POST /relay                -> message forwarded by a child instance
type CallbackServer struct {
	ch     *channel.Channel
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewCallbackServer creates the loopback handler posting into ch.
func NewCallbackServer(ch *channel.Channel, logger *slog.Logger) *CallbackServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CallbackServer{ch: ch, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /login", s.handleLogin)
	s.mux.HandleFunc("POST /relay", s.handleRelay)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "mailmate sign-in listener")
	})
	return s
}

func (s *CallbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// originOf derives the origin a request was issued from. Browsers stamp
// Origin on cross-site fetches and Sec-Fetch-Site on everything they send;
// only a request carrying neither (a redirect navigation, or a child
// instance's relay) falls back to the host it was addressed to.
func originOf(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return o
	}
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
		return "http://" + r.Host
	default:
		return "cross-site"
	}
}

// navigationOrigin is originOf for the GET landing pages. A top-level
// redirect from the backend is cross-site by nature and carries no Origin.
func navigationOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return o
	}
	return "http://" + r.Host
}

func (s *CallbackServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing 'token' parameter", http.StatusBadRequest)
		return
	}
	s.post(channel.Message{Origin: navigationOrigin(r), Type: channel.TypeAuthSuccess, Token: token})
	writeClosePage(w, "Signed in.")
}

func (s *CallbackServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("error")
	if code == "" {
		http.Error(w, "Missing 'error' parameter", http.StatusBadRequest)
		return
	}
	s.post(channel.Message{Origin: navigationOrigin(r), Type: channel.TypeAuthError, Error: code})
	writeClosePage(w, ErrorCode(code).Message())
}

func (s *CallbackServer) handleRelay(w http.ResponseWriter, r *http.Request) {
	// A JSON body forces a preflight on cross-site fetches, which we never answer.
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}
	var msg channel.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&msg); err != nil {
		http.Error(w, "Invalid message", http.StatusBadRequest)
		return
	}
	msg.Origin = originOf(r)
	s.post(msg)
	w.WriteHeader(http.StatusAccepted)
}

func (s *CallbackServer) post(msg channel.Message) {
	if !s.ch.Post(msg) {
		s.logger.Debug("callback message not delivered", "type", msg.Type, "origin", msg.Origin)
	}
}

// writeClosePage renders a page that closes its own window. Browsers only
// honour window.close for script-opened windows, so the text stays useful.
func writeClosePage(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!doctype html>
<html><head><title>mailmate</title></head>
<body><p>%s You can close this window and return to the terminal.</p>
<script>window.close()</script></body></html>
`, html.EscapeString(text))
}

// Serve runs the callback server on ln. The returned stop function shuts it
// down and waits for the serve loop to exit.
func (s *CallbackServer) Serve(ln net.Listener) (func(), <-chan error) {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info("sign-in listener started", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("srv.Serve failed: %w", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("srv.Shutdown failed", "error", err)
		}
		<-errCh
		s.logger.Info("sign-in listener stopped")
	}, errCh
}
