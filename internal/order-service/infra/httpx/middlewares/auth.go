package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors/constants"
)

type actorKey struct{}

type claims struct {
	UserID domain.ID `json:"id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// Authenticate verifies the HS256 bearer token and stores the caller as a
// domain.AuthContext. An empty secret is a server misconfiguration and is
// reported per request rather than at startup.
func Authenticate(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get(constants.HeaderAuthorization))
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, "No token provided")
				return
			}
			if secret == "" {
				writeMessage(w, http.StatusInternalServerError, "JWT secret is not defined")
				return
			}

			var c claims
			_, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			actor := &domain.AuthContext{UserID: c.UserID, Email: c.Email}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// bearerToken returns the second space separated part of the header.
func bearerToken(header string) string {
	_, token, _ := strings.Cut(strings.TrimSpace(header), " ")
	token, _, _ = strings.Cut(strings.TrimSpace(token), " ")
	return token
}

func WithActor(ctx context.Context, actor *domain.AuthContext) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns nil when the request was not authenticated.
func ActorFromContext(ctx context.Context) *domain.AuthContext {
	actor, _ := ctx.Value(actorKey{}).(*domain.AuthContext)
	return actor
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
