package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quizmaster/internal/common"
	"quizmaster/internal/common/security"
	"quizmaster/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const UserCtxKey contextKey = "user"

// UserLookup resolves the account behind a verified token.
type UserLookup interface {
	Authenticate(ctx context.Context, userID int64, uniquifier string) (*model.User, error)
}

// Authenticator requires a valid token from the Verifier and loads its user.
// Missing, inactive or revoked accounts are rejected with 401.
func Authenticator(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) || token == nil {
					common.RespondWithError(w, http.StatusUnauthorized, "Authentication token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
				}
				return
			}
			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			uniquifier, err := security.GetUniquifierFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			user, err := users.Authenticate(r.Context(), userID, uniquifier)
			if err != nil {
				common.RespondWithServiceError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles admits users holding at least one of roles.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !user.HasAnyRole(roles...) {
				common.RespondWithError(w, http.StatusForbidden, "Requires role: "+strings.Join(roles, " or "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly is RequireRoles(admin).
func AdminOnly(next http.Handler) http.Handler {
	return RequireRoles(model.RoleAdmin)(next)
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}

// IsAdmin reports whether the request's user may see answer keys.
func IsAdmin(ctx context.Context) bool {
	user, ok := UserFromContext(ctx)
	return ok && user.HasAnyRole(model.RoleAdmin)
}
