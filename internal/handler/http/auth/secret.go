// Package auth guards the episode trigger endpoint with a shared secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"commutecast/internal/handler/http/requestid"
	"commutecast/internal/handler/http/respond"
)

// ErrAuthorizationFailed is logged when a request carries no valid credential.
var ErrAuthorizationFailed = errors.New("authorization failed")

const bearerPrefix = "Bearer "

// RequireBearerSecret rejects requests whose Authorization header is not
// exactly "Bearer <secret>". An empty secret rejects every request.
func RequireBearerSecret(secret string) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authorized(r.Header.Get("Authorization"), want) {
				slog.WarnContext(r.Context(), "rejected trigger request",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.Any("error", ErrAuthorizationFailed))
				respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authorized(header string, want []byte) bool {
	if len(want) == 0 {
		return false
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), want) == 1
}
