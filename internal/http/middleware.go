package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Identity headers set by the fronting auth layer.
const (
	headerUserID    = "X-User-ID"
	headerUserName  = "X-User-Name"
	headerUserEmail = "X-User-Email"
)

// identity requires the trusted identity headers and mirrors the
// identity into the user store so friend lookup and name resolution
// can see it. Mirror failures are logged, not fatal: the engine is not
// the system of record for identities.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(headerUserID))
		if userID == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing "+headerUserID+" header")
			return
		}

		u := core.User{
			ID:       userID,
			Username: strings.TrimSpace(r.Header.Get(headerUserName)),
			Email:    strings.TrimSpace(r.Header.Get(headerUserEmail)),
		}
		if err := s.users.Upsert(r.Context(), u); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to mirror identity",
				log.FieldUserID, userID,
				log.FieldError, err)
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestUser returns the authenticated user id placed by identity.
func requestUser(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.InfoContext(r.Context(), "Request handled",
			log.FieldRequestID, chimiddleware.GetReqID(r.Context()),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, ww.Status(),
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, r.RemoteAddr)
	})
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(r.RemoteAddr) {
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
