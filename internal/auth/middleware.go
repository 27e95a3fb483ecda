package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/authhub-io/authhub/internal/database"
	"github.com/authhub-io/authhub/internal/metrics"
)

type contextKey string

const userContextKey contextKey = "user"

// UserStore is the lookup the gateway needs from the credential store.
type UserStore interface {
	GetUserByID(id int64) (*database.User, error)
}

// Middleware is the bearer-token gateway. It extracts the token from the
// Authorization header, validates it, resolves the user it references and
// attaches the user to the request context. Every failure mode past the
// missing-header check collapses to the same generic 401 so callers cannot
// probe which step rejected them; the real reason goes to the log.
// Validation never mutates state.
func Middleware(tokens *TokenManager, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The gateway boundary swallows everything, including
			// programming errors below it.
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("Token validation panic: %v", rec)
					metrics.TokenValidationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
					writeAuthError(w, "Invalid token")
				}
			}()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				metrics.TokenValidationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
				writeAuthError(w, "Token is missing")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Printf("Token validation error: malformed Authorization header")
				metrics.TokenValidationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
				writeAuthError(w, "Invalid token")
				return
			}

			userID, err := tokens.Validate(parts[1])
			if err != nil {
				log.Printf("Token validation error: %v", err)
				metrics.TokenValidationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
				writeAuthError(w, "Invalid token")
				return
			}

			// The token may outlive the account it references.
			user, err := store.GetUserByID(userID)
			if err != nil {
				log.Printf("Token validation error: user lookup failed: %v", err)
				metrics.TokenValidationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
				writeAuthError(w, "Invalid token")
				return
			}

			metrics.TokenValidationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the user the gateway resolved for this request.
func UserFromContext(ctx context.Context) (*database.User, bool) {
	user, ok := ctx.Value(userContextKey).(*database.User)
	return user, ok
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
