package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/irc-library/maktaba/api/auth"
	"github.com/irc-library/maktaba/http/request"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/store"
	"go.uber.org/zap"
)

type Middleware struct {
	store     *store.Store
	jwtSecret []byte
}

func NewMiddleware(store *store.Store, jwtSecret []byte) *Middleware {
	return &Middleware{store: store, jwtSecret: jwtSecret}
}

func (m *Middleware) HandleCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "X-Auth-Token, Authorization, Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", "7200")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) LoggingRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := request.FindClientIP(r)
		ctx := r.Context()
		ctx = context.WithValue(ctx, request.ClientIPContextKey, clientIP)

		t1 := time.Now()
		defer func() {
			log.Debug("Incoming request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("proto", r.Proto),
				zap.String("client_ip", clientIP),
				zap.Duration("duration", time.Since(t1)))
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthenticationInterceptor resolves the actor behind the request.
// Browsing is public, so a missing or invalid token leaves the request
// unauthenticated rather than rejecting it; role checks happen in the
// handlers and in the lending engine.
func (m *Middleware) AuthenticationInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := getAccessToken(r)
		if accessToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := auth.ParseAccessToken(accessToken, m.jwtSecret)
		if err != nil {
			log.Debug("Invalid access token",
				zap.String("client_ip", request.FindClientIP(r)),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		ctx := request.WithIdentity(r.Context(), *identity)
		// The token doubles as the catalog session key, so "load more"
		// keeps appending to the same accumulated page.
		sum := sha256.Sum256([]byte(accessToken))
		ctx = context.WithValue(ctx, request.SessionContextKey, hex.EncodeToString(sum[:8]))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getAccessToken(r *http.Request) string {
	// Check the HTTP Authorization header first
	authorizationHeaders := r.Header.Get("Authorization")
	// Check bearer token
	if authorizationHeaders != "" {
		splitToken := strings.Split(authorizationHeaders, "Bearer ")
		if len(splitToken) == 2 {
			return splitToken[1]
		}
	}

	// Check the cookie header
	var accessToken string
	for _, cookie := range r.Cookies() {
		if cookie.Name == auth.AccessTokenCookieName {
			accessToken = cookie.Value
		}
	}
	return accessToken
}
