package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"credo/pkg/requestcontext"
)

const (
	unknownDevice  = "Unknown Device"
	unknownBrowser = "Unknown Browser"
	unknownOS      = "Unknown OS"
)

// ClientMetadata stores the client IP and device label in the request context.
// Apply it before the access logger.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientIP(r.Context(), ClientIPFromRequest(r))
		ctx = requestcontext.WithClientDevice(ctx, ParseUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseUserAgent condenses a User-Agent header into "<browser> on <os>".
// Crawlers are labelled with a "(bot)" suffix.
func ParseUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownDevice
	}
	ua := useragent.New(raw)

	browser, _ := ua.Browser()
	browser = strings.TrimSpace(browser)
	if browser == "" {
		browser = unknownBrowser
	}
	os := strings.TrimSpace(ua.OS())
	if os == "" {
		os = strings.TrimSpace(ua.Platform())
	}
	if os == "" {
		os = unknownOS
	}

	label := browser + " on " + os
	if ua.Bot() {
		label += " (bot)"
	}
	return label
}

// ClientIPFromRequest returns the originating client IP: the first
// X-Forwarded-For entry, then X-Real-IP, then the host part of RemoteAddr.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
