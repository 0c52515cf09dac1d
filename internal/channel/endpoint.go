package channel

import (
	"fmt"
	"net/url"
	"strings"
)

// boardPath is the websocket path served by the board firmware.
const boardPath = "/ws"

// Endpoint derives the board websocket URL from the address the dashboard is
// served from: same host, ws for http and wss for https, fixed path.
func Endpoint(pageURL string) (string, error) {
	raw := strings.TrimSpace(pageURL)
	if raw == "" {
		return "", fmt.Errorf("board address is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse board address %q: %w", pageURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("board address %q has no host", pageURL)
	}

	scheme := "ws"
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
	case "https", "wss":
		scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in board address", u.Scheme)
	}

	out := url.URL{Scheme: scheme, Host: u.Host, Path: boardPath}
	return out.String(), nil
}
