// session/middleware.go
package session

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Middleware loads the visitor's session and saves it, if modified, before
// the response header goes out. The session is available via
// FromContext(r.Context()).
func Middleware(m *Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := m.Get(r)
			if err != nil {
				logger.Warn("session load failed; starting a new session", zap.Error(err))
			}
			if session == nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), sessionContextKey, session))

			sw := &sessionWriter{
				ResponseWriter: w,
				request:        r,
				session:        session,
				manager:        m,
				logger:         logger,
			}

			next.ServeHTTP(sw, r)

			// Nothing was written; still persist and set the cookie.
			if !sw.wroteHeader {
				sw.save()
			}
		})
	}
}

// FromContext retrieves the session from the request context.
// Returns nil if no session is in context (middleware not used).
func FromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}

// sessionWriter wraps ResponseWriter to save the session before the header
// is sent, so the Set-Cookie header is not lost.
type sessionWriter struct {
	http.ResponseWriter
	request     *http.Request
	session     *Session
	manager     *Manager
	logger      *zap.Logger
	wroteHeader bool
}

func (sw *sessionWriter) save() {
	if !sw.session.Modified() {
		return
	}
	if err := sw.manager.Save(sw.ResponseWriter, sw.request, sw.session); err != nil {
		sw.logger.Error("session save failed", zap.Error(err))
	}
}

func (sw *sessionWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.save()
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	return sw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *sessionWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
