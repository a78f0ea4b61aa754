package gate

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/infra"
)

// AuthService выдает RS256 токены оператору админки.
// Оператор один и задан конфигом (bcrypt-хэш пароля): отдельной таблицы
// пользователей у шлюза нет. Акторов политики этот слой НЕ аутентифицирует —
// они матчятся по имени в множестве опекунов.
type AuthService struct {
	cfg        infra.AuthConfig
	privateKey *rsa.PrivateKey
}

func NewAuthService(cfg infra.AuthConfig, privateKey *rsa.PrivateKey) *AuthService {
	return &AuthService{cfg: cfg, privateKey: privateKey}
}

func (s *AuthService) GenerateToken(username, password string) (*domain.TokenResponse, error) {
	// 1. Аутентификация: учетка оператора из конфига
	if username != s.cfg.OperatorUsername || s.cfg.OperatorPasswordHash == "" {
		return nil, errors.New("invalid credentials")
	}

	// 2. Проверка пароля (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorPasswordHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// 3. Claims: оператору положено управлять множеством опекунов
	ttl := s.cfg.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	expiresAt := time.Now().Add(ttl)
	claims := &domain.CustomClaims{
		OperatorID: username,
		Scopes:     map[string]bool{"guardians:read": true, "guardians:write": true},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vaultgate",
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	// 4. Подпись токена закрытым ключом (RS256)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}
