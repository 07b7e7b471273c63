package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"rifa/pkg/requestcontext"
)

// TokenValidator defines the interface for validating operator tokens. The
// raffle treats authentication as an opaque predicate; this is its shape.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims we expect from the token validator.
type TokenClaims struct {
	Subject string
	Role    string
}

// RoleOperator is the role required for the privileged raffle operations
// (approve, reject, draw, remove, reset).
const RoleOperator = "operator"

// RequireOperator rejects requests that do not carry a valid operator bearer
// token. Valid operator requests continue with the operator flag in context.
func RequireOperator(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "operator access denied - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "operator access denied - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if claims.Role != RoleOperator {
				logger.WarnContext(ctx, "operator access denied - wrong role",
					"role", claims.Role,
					"request_id", GetRequestID(ctx),
				)
				writeAuthError(w, http.StatusForbidden, "operator role required")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithOperator(ctx, true)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
