package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxUserKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, userID)
}

// UserID returns the id put in ctx by RequireBearer.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxUserKey{}).(string)
	return id, ok && id != ""
}

// RequireBearer rejects requests without a valid access token in the
// Authorization header.
func RequireBearer(tokens *Tokens) func(http.Handler) http.Handler {
	return requireToken(tokens, false)
}

// RequireBearerOrQuery also accepts the token as the access_token query
// parameter. Browsers cannot set headers on websocket handshakes.
func RequireBearerOrQuery(tokens *Tokens) func(http.Handler) http.Handler {
	return requireToken(tokens, true)
}

func requireToken(tokens *Tokens, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, msg := bearerToken(r)
			if raw == "" && allowQuery {
				raw = r.URL.Query().Get("access_token")
			}
			if raw == "" {
				if msg == "" {
					msg = "missing Authorization header"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			claims, err := tokens.Parse(raw, tokenTypeAccess)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "invalid Authorization header"
	}
	return strings.TrimSpace(parts[1]), ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
