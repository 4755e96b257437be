package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"mailmate/internal/api"
	"mailmate/internal/channel"
	"mailmate/internal/config"
	"mailmate/internal/handshake"
	"mailmate/internal/logging"
	"mailmate/internal/store"
	"mailmate/internal/tui"
)

func main() {
	envFile := flag.String("env-file", "", "load environment from this file instead of ./.env")
	relayTo := flag.String("relay-to", "", "run a headless sign-in and forward the result to this /relay URL")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, logFile, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	var client *api.Client
	if cfg.APIConfigured() {
		client, err = api.New(cfg.APIURL, api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid API URL: %v\n", err)
			os.Exit(1)
		}
	}

	ch := channel.New(cfg.CallbackOrigin(), logger)
	ln, err := net.Listen("tcp", cfg.CallbackAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot listen for sign-in callbacks on %s: %v\n", cfg.CallbackAddr, err)
		os.Exit(1)
	}
	stop, _ := handshake.NewCallbackServer(ch, logger).Serve(ln)
	defer stop()

	if *relayTo != "" {
		if err := relay(client, ch, *relayTo, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Sign-in relay failed: %v\n", err)
			stop()
			os.Exit(1)
		}
		return
	}

	db, err := store.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open database: %v\n", err)
		stop()
		os.Exit(1)
	}
	defer db.Close()

	appModel := tui.NewAppModel(tui.Deps{
		Client:       client,
		Store:        db,
		Channel:      ch,
		Opener:       handshake.BrowserOpener,
		CacheSession: cfg.CacheSession,
		Logger:       logger,
	})
	p := tea.NewProgram(&appModel, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		stop()
		os.Exit(1)
	}
	if m, ok := finalModel.(*tui.AppModel); ok && m.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", m.Err)
		stop()
		os.Exit(1)
	}
}

// relay runs one sign-in without a UI and hands the result to the parent
// instance listening at upstreamURL.
func relay(client *api.Client, ch *channel.Channel, upstreamURL string, logger *slog.Logger) error {
	if client == nil {
		return errors.New("MAILMATE_API_URL is not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctrl := handshake.NewController(ch, handshake.BrowserOpener, handshake.HTTPUpstream{URL: upstreamURL}, logger)
	if err := ctrl.Start(handshake.Request{TargetURL: client.LoginURL()}); err != nil {
		return err
	}
	fmt.Println("Finish signing in in your browser. Press Ctrl+C to give up.")

	res, err := ctrl.Wait(ctx)
	if err != nil {
		return err
	}
	if res.RelayErr != nil {
		return res.RelayErr
	}
	if res.Success() {
		fmt.Println("Signed in. Result sent to the parent window.")
	} else {
		fmt.Printf("Sign-in failed: %s\n", res.Reason.Message())
	}
	return nil
}
