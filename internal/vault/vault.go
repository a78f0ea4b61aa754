package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/guardians"
	"github.com/xela07ax/vaultgate-prototype/internal/policy"
	"github.com/xela07ax/vaultgate-prototype/internal/signer"
)

// Clock — инжектируемый источник времени. В тестах подменяется на
// фейковые часы, cooldown проверяется без реального ожидания.
type Clock func() time.Time

// Config — конфигурация Vault. Фиксируется при конструировании,
// после — никаких мутаций.
type Config struct {
	Secret   []byte           // Ключ HMAC. Не логируется и не сериализуется.
	Limits   map[string]int64 // Консультируется только "daily"
	Cooldown time.Duration
}

// Vault связывает Policy Evaluator и Signer в одну операцию Sign
// и владеет состоянием cooldown. Мьютекс держится на всем отрезке
// "evaluate + digest + commit timestamp": при встраивании в долгоживущий
// многозапросный сервис конкурентные Sign не гонятся за общим таймстемпом.
type Vault struct {
	mu        sync.Mutex
	cfg       Config
	evaluator *policy.Evaluator
	store     CooldownStore
	clock     Clock
	logger    *zap.Logger
}

func New(cfg Config, dir guardians.Directory, store CooldownStore, clock Clock, logger *zap.Logger) *Vault {
	if clock == nil {
		clock = time.Now
	}
	return &Vault{
		cfg:       cfg,
		evaluator: policy.NewEvaluator(dir, cfg.Limits, cfg.Cooldown, logger),
		store:     store,
		clock:     clock,
		logger:    logger.Named("vault"),
	}
}

// Sign авторизует Intent и считает детерминированный HMAC-дайджест.
// Контракт:
//   - успех политики: дайджест посчитан, cooldown переведен в "now",
//     возвращается {intent, actor, sig};
//   - отказ политики: cooldown НЕ трогается, подпись не считается,
//     наружу уходит конкретная причина (*domain.Rejection).
func (v *Vault) Sign(ctx context.Context, intent domain.Intent, actor string) (*domain.SignedIntent, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	requestID := uuid.New().String()
	now := v.clock()

	lastSign, err := v.store.Last(ctx)
	if err != nil {
		return nil, fmt.Errorf("vault: cooldown state unavailable: %w", err)
	}

	if err := v.evaluator.Evaluate(ctx, intent, actor, lastSign, now); err != nil {
		if rej, ok := domain.AsRejection(err); ok {
			v.logger.Info("sign rejected",
				zap.String("request_id", requestID),
				zap.String("actor", actor),
				zap.String("code", string(rej.Code)),
			)
		}
		return nil, err
	}

	sig, err := signer.Digest(intent, v.cfg.Secret)
	if err != nil {
		return nil, err
	}

	// Коммит таймстемпа только после успешной подписи.
	// Таймстемп монотонно неубывает в пределах жизни хранилища.
	if err := v.store.Commit(ctx, now); err != nil {
		return nil, fmt.Errorf("vault: cooldown commit failed: %w", err)
	}

	v.logger.Info("intent signed",
		zap.String("request_id", requestID),
		zap.String("actor", actor),
		zap.String("to", intent.To),
		zap.Int64("value", intent.Value),
	)

	return &domain.SignedIntent{Intent: intent, Actor: actor, Sig: sig}, nil
}
