package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atlasbank/core-banking/internal/adapter/repository/repo_interfaces"
	"github.com/atlasbank/core-banking/internal/auth"
	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
)

type contextKey string

const clientContextKey contextKey = "authenticatedClient"

// ClientFrom returns the client the bearer token resolved to. The second
// return is false on handlers mounted without the auth middleware.
func ClientFrom(ctx context.Context) (domain.Client, bool) {
	client, ok := ctx.Value(clientContextKey).(domain.Client)
	return client, ok
}

func BearerAuth(secret string, clientRepo repo_interfaces.ClientRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Error("bearer auth middleware missing server configuration", nil, logger.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				http.Error(w, "server auth configuration is missing", http.StatusInternalServerError)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				logger.Info("bearer auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"credentials": "missing",
				})
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cpf, err := auth.ParseAccessToken(secret, token)
			if err != nil {
				logger.Info("bearer auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"credentials": "invalid_or_expired",
				})
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			client, err := clientRepo.GetByCPF(r.Context(), cpf)
			if err != nil || !client.Active {
				logger.Info("bearer auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"credentials": "unknown_subject",
				})
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), clientContextKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
