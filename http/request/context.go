package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/irc-library/maktaba/model"
)

type ContextKey int

const (
	ClientIPContextKey ContextKey = iota
	IdentityContextKey
	SessionContextKey
)

func getContextStringValue(r *http.Request, key ContextKey) string {
	if v := r.Context().Value(key); v != nil {
		if value, valid := v.(string); valid {
			return value
		}
	}
	return ""
}

// ClientIP returns the client IP address stored in the context.
func ClientIP(r *http.Request) string {
	return getContextStringValue(r, ClientIPContextKey)
}

// FindClientIP resolves the client IP from proxy headers or the socket.
func FindClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}

// WithIdentity stores the authenticated actor in the request context.
func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// GetIdentity returns the authenticated actor, or a zero identity for an
// unauthenticated request.
func GetIdentity(r *http.Request) model.Identity {
	if v := r.Context().Value(IdentityContextKey); v != nil {
		if identity, valid := v.(model.Identity); valid {
			return identity
		}
	}
	return model.Identity{}
}

// SessionID returns the catalog session id bound to the access token.
func SessionID(r *http.Request) string {
	return getContextStringValue(r, SessionContextKey)
}
