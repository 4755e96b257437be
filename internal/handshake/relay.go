package handshake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
)

// HTTPUpstream forwards a result to the parent instance's /relay endpoint.
// Each hop forwards exactly one level, so chains of any depth unwind.
type HTTPUpstream struct {
	URL    string // e.g. http://127.0.0.1:3000/relay
	Client *http.Client
}

func (u HTTPUpstream) Forward(ctx context.Context, r Result) error {
	body, err := json.Marshal(r.message())
	if err != nil {
		return fmt.Errorf("json.Marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("relay to %s: %w", u.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay to %s: unexpected status %d", u.URL, resp.StatusCode)
	}
	return nil
}

// BrowserOpener opens the secondary context in the user's default browser.
var BrowserOpener = OpenerFunc(OpenBrowser)

// OpenBrowser launches the platform URL handler for an http(s) URL.
func OpenBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	// Validate URL scheme to prevent command injection
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return fmt.Errorf("refusing to open non-HTTP URL: %s", url)
	}

	return exec.Command(cmd, args...).Start()
}
