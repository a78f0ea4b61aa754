package policy

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/guardians"
)

// Длина валидного hex-адреса получателя: "0x" + 40 символов.
const recipientLen = 42

// Evaluator — PDP шлюза подписи. Чистые предикаты над Intent, актором
// и состоянием cooldown. Ровно пять проверок, в фиксированном порядке,
// побеждает первый отказ — нарушения не агрегируются.
//
// Намеренно НЕТ проверок nonce/replay, chain_id и поля data:
// это ограничение набора политик, а не упущение.
type Evaluator struct {
	dir      guardians.Directory
	limits   map[string]int64
	cooldown time.Duration
	logger   *zap.Logger
}

func NewEvaluator(dir guardians.Directory, limits map[string]int64, cooldown time.Duration, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		dir:      dir,
		limits:   limits,
		cooldown: cooldown,
		logger:   logger.Named("evaluator"),
	}
}

// Evaluate возвращает nil, если подпись разрешена, либо *domain.Rejection
// с конкретной причиной. lastSign — момент последней успешной подписи
// (нулевое время, если подписей еще не было), now — инжектируемые часы.
func (e *Evaluator) Evaluate(ctx context.Context, intent domain.Intent, actor string, lastSign, now time.Time) error {
	// 1. Актор непуст и присутствует в множестве опекунов.
	// Ошибка источника трактуется как отказ (fail-closed).
	if actor == "" {
		return domain.ErrActorNotAuthorized()
	}
	authorized, err := e.dir.IsGuardian(ctx, actor)
	if err != nil {
		e.logger.Error("guardian directory lookup failed, failing closed",
			zap.String("actor", actor), zap.Error(err))
		return domain.ErrActorNotAuthorized()
	}
	if !authorized {
		return domain.ErrActorNotAuthorized()
	}

	// 2. Сумма неотрицательна
	if intent.Value < 0 {
		return domain.ErrNegativeValue()
	}

	// 3. Дневной лимит: проверяется только если задан и ненулевой
	if daily := e.limits["daily"]; daily != 0 && intent.Value > daily {
		return domain.ErrValueExceedsLimit(daily)
	}

	// 4. Получатель выглядит как hex-адрес: "0x" + ровно 40 символов
	if !strings.HasPrefix(intent.To, "0x") || len(intent.To) != recipientLen {
		return domain.ErrMalformedRecipient()
	}

	// 5. Cooldown: минимальный интервал между успешными подписями
	if now.Sub(lastSign) < e.cooldown {
		return domain.ErrCooldownViolation()
	}

	return nil
}
