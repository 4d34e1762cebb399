package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/auth"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/sessions"
)

const sessionCookieName = "session"

type contextKey int

const sessionContextKey contextKey = iota

// sessionFromContext returns the session attached by sessionMiddleware.
func sessionFromContext(ctx context.Context) *sessions.Session {
	s, _ := ctx.Value(sessionContextKey).(*sessions.Session)
	return s
}

// sessionMiddleware resolves the server-side session named by the signed
// cookie, minting a fresh session and cookie when the token is absent,
// invalid or expired. The cookie itself carries only a session identifier.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		var sid string
		if c, err := r.Cookie(sessionCookieName); err == nil {
			if id, err := auth.GetSessionIDFromToken(c.Value, s.secretKey); err == nil {
				sid = id
			}
		}

		if sid == "" {
			sid = s.sessions.NewSessionID()
			token, err := auth.GenerateToken(sid, s.secretKey, s.config.SessionTTL)
			if err != nil {
				s.logger.Error(r.Context(), "error minting session token", "error", err.Error())
				writeError(w, http.StatusInternalServerError, "Internal error")
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(s.config.SessionTTL),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess := s.sessions.GetOrCreate(sid)
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

// corsMiddleware allows the configured frontend origins to use the API with
// credentials (the session cookie).
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(s.config.AllowedOrigins))
	for _, o := range s.config.AllowedOrigins {
		allowed[o] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
