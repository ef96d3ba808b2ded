package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hradmin/internal/domain/auth"
	"hradmin/internal/transport/http/api"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// RevocationChecker is consulted on every authenticated request; the lookup
// is never cached so a logout takes effect on the very next call.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Auth validates a bearer token when one is present. Requests without a
// token pass through anonymously and are stopped later by RequireAuth.
// Each failure mode maps to its own error code so callers can tell a
// malformed token from an expired or revoked one.
func Auth(secret string, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				api.Fail(w, http.StatusUnauthorized, "token_invalid", "malformed authorization header", GetRequestID(r.Context()))
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					api.Fail(w, http.StatusUnauthorized, "token_expired", "token has expired", GetRequestID(r.Context()))
					return
				}
				api.Fail(w, http.StatusUnauthorized, "token_invalid", "token is invalid", GetRequestID(r.Context()))
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsTokenRevoked(r.Context(), claims.ID)
				if err != nil {
					api.Fail(w, http.StatusInternalServerError, "auth_check_failed", "token revocation check failed", GetRequestID(r.Context()))
					return
				}
				if revoked {
					api.Fail(w, http.StatusUnauthorized, "token_revoked", "token has been revoked", GetRequestID(r.Context()))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:     claims.UserID,
				EmployeeID: claims.EmployeeID,
				Username:   claims.Username,
				RoleName:   claims.RoleName,
				TokenID:    claims.ID,
				RawToken:   parts[1],
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}
