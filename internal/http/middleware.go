package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	clientIPKey       contextKey = "client_ip"
)

const sessionCookieName = "fintrack_session"

// sessionFromContext returns the authenticated session, if any.
func sessionFromContext(ctx context.Context) (core.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(core.Session)
	return s, ok
}

// actorFromContext returns the authenticated user behind the request.
func actorFromContext(ctx context.Context) (*core.User, bool) {
	s, ok := sessionFromContext(ctx)
	if !ok || s.User == nil {
		return nil, false
	}
	return s.User, true
}

// extractToken finds the session token in the Authorization header or
// the session cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, found := strings.CutPrefix(h, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireSession validates the session token and extends its expiry,
// the activity signal that keeps sessions alive.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Validate(r.Context(), extractToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestContext stamps every request with an id, client ip, and a
// scoped logger.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		clientIP := extractClientIP(r)

		logger := s.logger.With(log.FieldRequestID, requestID, log.FieldClientIP, clientIP)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		ctx = context.WithValue(ctx, clientIPKey, clientIP)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// securityHeaders sets a conservative header baseline on every
// response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// rateLimit rejects clients over the per-minute budget. Applied to
// mutating routes only.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP, _ := r.Context().Value(clientIPKey).(string)
		if clientIP == "" {
			clientIP = extractClientIP(r)
		}
		if !s.limiter.allow(clientIP) {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests wraps the structured start/end logging around each
// request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	structured := log.NewStructuredLogger(s.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP, _ := r.Context().Value(clientIPKey).(string)
		start := nowMillis()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		structured.LogHTTPStart(r.Context(), r, clientIP)
		next.ServeHTTP(sw, r)
		structured.LogHTTPEnd(r.Context(), r, sw.status, nowMillis()-start, clientIP)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
