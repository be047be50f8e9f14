// Package config provides configuration helpers for crowdwatch commands.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Default detection backend configuration.
const (
	// DefaultLocalAPIBase is the detection backend address used for
	// local development (localhost deployments).
	DefaultLocalAPIBase = "http://localhost:8001"

	// DefaultListenAddr is the dashboard listen address.
	DefaultListenAddr = ":8080"
)

// APIBase returns the detection backend base URL from the CROWDWATCH_API
// env var. Falls back to the provided default if not set.
func APIBase(defaultBase string) string {
	if base := os.Getenv("CROWDWATCH_API"); base != "" {
		return strings.TrimRight(base, "/")
	}
	return strings.TrimRight(defaultBase, "/")
}

// ResolveAPIBase derives the backend base URL from a deploy origin.
// Localhost origins map to the fixed local default; anything else keeps
// the origin's scheme and hostname, dropping any explicit port (the
// backend is assumed reachable on the origin's default port when deployed).
func ResolveAPIBase(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return DefaultLocalAPIBase
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return DefaultLocalAPIBase
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

// Origin returns the deploy origin from CROWDWATCH_ORIGIN. Empty means
// local development.
func Origin() string {
	return os.Getenv("CROWDWATCH_ORIGIN")
}

// WebhookURL returns the alert webhook URL from CROWDWATCH_WEBHOOK.
// Empty means alert notifications are disabled.
func WebhookURL() string {
	return os.Getenv("CROWDWATCH_WEBHOOK")
}

// ListenAddr returns the dashboard listen address from CROWDWATCH_LISTEN
// or the default.
func ListenAddr() string {
	if addr := os.Getenv("CROWDWATCH_LISTEN"); addr != "" {
		return addr
	}
	return DefaultListenAddr
}
