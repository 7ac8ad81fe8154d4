package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/clerk"

	"github.com/rs/zerolog"
)

const SessionKey contextKey = "session"

// Clerk sends the session token in the __session cookie for same-site requests
// and as a bearer token otherwise.
const sessionCookie = "__session"

type SessionVerifier interface {
	Verify(raw string) (*clerk.Session, error)
}

func Auth(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthenticated(w, "Authentication required")
				return
			}

			session, err := verifier.Verify(token)
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("invalid session token")
				writeUnauthenticated(w, "Invalid authentication token")
				return
			}

			logger := zerolog.Ctx(r.Context()).With().Str("user_id", session.UserID).Logger()
			ctx := context.WithValue(r.Context(), SessionKey, session)
			ctx = logger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func SessionFrom(ctx context.Context) (*clerk.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*clerk.Session)
	return s, ok && s != nil
}

func writeUnauthenticated(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"code":  string(apperr.CodeUnauthenticated),
	})
}
