package vault

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/vaultgate-prototype/internal/infra"
)

// CooldownStore — явное владение состоянием "когда подписывали в последний
// раз" вместо process-global переменной. Отсутствие записи трактуется
// как нулевое время (эпоха): первый вызов всегда проходит проверку №5.
type CooldownStore interface {
	Last(ctx context.Context) (time.Time, error)
	Commit(ctx context.Context, t time.Time) error
}

// MemoryCooldown — состояние на время жизни процесса. Для CLI-режима,
// где один вызов Sign на процесс и персистентность не нужна.
type MemoryCooldown struct {
	mu   sync.Mutex
	last time.Time
}

func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{}
}

func (m *MemoryCooldown) Last(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *MemoryCooldown) Commit(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = t
	return nil
}

// RedisCooldown — общий таймстемп для всех инстансов шлюза.
// Хранит unix-секунды последней успешной подписи под namespaced-ключом.
type RedisCooldown struct {
	rdb *redis.Client
	key string
}

func NewRedisCooldown(rdb *redis.Client) *RedisCooldown {
	return &RedisCooldown{rdb: rdb, key: infra.RedisKeyCooldownLast}
}

func (r *RedisCooldown) Last(ctx context.Context) (time.Time, error) {
	raw, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil // Подписей еще не было
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("cooldown: redis get failed: %w", err)
	}

	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("cooldown: corrupt timestamp %q: %w", raw, err)
	}
	return time.Unix(ts, 0), nil
}

func (r *RedisCooldown) Commit(ctx context.Context, t time.Time) error {
	if err := r.rdb.Set(ctx, r.key, strconv.FormatInt(t.Unix(), 10), 0).Err(); err != nil {
		return fmt.Errorf("cooldown: redis set failed: %w", err)
	}
	return nil
}
