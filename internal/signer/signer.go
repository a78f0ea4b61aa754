package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
)

// CanonicalPayload сериализует Intent в канонический вид для подписи:
// JSON с лексикографически отсортированными именами полей, компактный,
// без зависимости от порядка инициализации полей на стороне вызова.
// Одинаковый логический Intent всегда дает байт-в-байт одинаковый payload.
func CanonicalPayload(intent domain.Intent) ([]byte, error) {
	// encoding/json сортирует ключи мапы — это и есть канонический порядок:
	// chain_id, data, nonce, to, value
	payload, err := json.Marshal(map[string]any{
		"to":       intent.To,
		"value":    intent.Value,
		"data":     intent.Data,
		"chain_id": intent.ChainID,
		"nonce":    intent.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("signer: canonical encode failed: %w", err)
	}
	return payload, nil
}

// Digest вычисляет HMAC-SHA256 над каноническим payload и отдает
// "0x" + 64 hex-символа в нижнем регистре. Чистая функция от
// (полей Intent, secret): никакого времени, pid и прочего ambient-состояния.
func Digest(intent domain.Intent, secret []byte) (string, error) {
	payload, err := CanonicalPayload(intent)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "0x" + hex.EncodeToString(mac.Sum(nil)), nil
}
