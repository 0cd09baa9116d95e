package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/bobmcallan/papertrade/internal/auth"
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenVerifier resolves a bearer token to its claims.
type TokenVerifier interface {
	Authenticate(token string) (*auth.Claims, error)
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// RequireAuth rejects requests without a valid "Authorization: Bearer"
// token and stores the token's subject in the request context.
func RequireAuth(verifier TokenVerifier, logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteDomainError(w, logger, models.Errorf(models.KindAuth, "missing bearer token"))
				return
			}
			claims, err := verifier.Authenticate(token)
			if err != nil {
				if logger != nil {
					logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				}
				WriteDomainError(w, logger, models.Errorf(models.KindAuth, "invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
