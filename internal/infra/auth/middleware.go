package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
)

// TokenValidator — интерфейс проверки токенов админки
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

type ctxKey string

const (
	scopesKey     ctxKey = "operator_scopes"
	operatorIDKey ctxKey = "operator_id"
)

// NewMiddleware закрывает группу роутов требованием валидного RS256 токена.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Прокидываем данные в контекст
			ctx := context.WithValue(r.Context(), scopesKey, claims.Scopes)
			ctx = context.WithValue(ctx, operatorIDKey, claims.OperatorID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScopesFromContext достает права оператора в хендлере.
func ScopesFromContext(ctx context.Context) (map[string]bool, bool) {
	scopes, ok := ctx.Value(scopesKey).(map[string]bool)
	return scopes, ok
}
