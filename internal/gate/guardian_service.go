package gate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/infra"
)

// GuardianRepository описывает требования сервиса к хранилищу опекунов
type GuardianRepository interface {
	ListGuardians(ctx context.Context) ([]domain.Guardian, error)
	GetGuardianByName(ctx context.Context, name string) (*domain.Guardian, error)
	CreateGuardian(ctx context.Context, name string) error
	DeleteGuardian(ctx context.Context, name string) error
}

// GuardianService — админ-операции над множеством опекунов.
// Каждая мутация уведомляет все инстансы шлюза через Redis Pub/Sub,
// чтобы их L1-кэши обновились без рестарта.
type GuardianService struct {
	repo GuardianRepository
	rdb  *redis.Client
}

func NewGuardianService(repo GuardianRepository, rdb *redis.Client) *GuardianService {
	return &GuardianService{repo: repo, rdb: rdb}
}

func (s *GuardianService) List(ctx context.Context) ([]domain.Guardian, error) {
	return s.repo.ListGuardians(ctx)
}

func (s *GuardianService) Get(ctx context.Context, name string) (*domain.Guardian, error) {
	return s.repo.GetGuardianByName(ctx, name)
}

// Add вносит имя в БД, Redis Set и рассылает сигнал шлюзам
func (s *GuardianService) Add(ctx context.Context, name string) error {
	if err := s.repo.CreateGuardian(ctx, name); err != nil {
		return err
	}
	if err := s.rdb.SAdd(ctx, infra.RedisKeyGuardianSet, name).Err(); err != nil {
		return fmt.Errorf("guardians: redis sadd failed: %w", err)
	}
	return s.notify(ctx, name, true)
}

// Remove исключает имя отовсюду и рассылает сигнал
func (s *GuardianService) Remove(ctx context.Context, name string) error {
	if err := s.repo.DeleteGuardian(ctx, name); err != nil {
		return err
	}
	if err := s.rdb.SRem(ctx, infra.RedisKeyGuardianSet, name).Err(); err != nil {
		return fmt.Errorf("guardians: redis srem failed: %w", err)
	}
	return s.notify(ctx, name, false)
}

func (s *GuardianService) notify(ctx context.Context, name string, added bool) error {
	payload := name + ":false"
	if added {
		payload = name + ":true"
	}
	return s.rdb.Publish(ctx, infra.RedisChanGuardianSignal, payload).Err()
}
