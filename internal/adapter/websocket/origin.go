package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may open the live connection.
//
// Allowed: no Origin header (non-browser controllers), obs:// (OBS browser sources),
// file:// overlays opened from disk, and the origin of the configured app URL.
// In development any loopback origin is allowed as well.
type OriginPolicy struct {
	appOrigin     string
	isDevelopment bool
}

func NewOriginPolicy(appURL string, isDevelopment bool) *OriginPolicy {
	return &OriginPolicy{appOrigin: originOf(appURL), isDevelopment: isDevelopment}
}

// CheckOrigin has the signature expected by websocket.Upgrader.
func (p *OriginPolicy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if p.allowed(origin) {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
	return false
}

func (p *OriginPolicy) allowed(origin string) bool {
	switch {
	case origin == "", origin == "null":
		return true
	case strings.HasPrefix(origin, "obs://"), strings.HasPrefix(origin, "file://"):
		return true
	case p.appOrigin != "" && origin == p.appOrigin:
		return true
	case p.isDevelopment:
		return isLoopbackOrigin(origin)
	default:
		return false
	}
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
