package guardians

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/infra"
)

// Source описывает "холодный" источник правды для множества опекунов.
// Реализуется Postgres-репозиторием.
type Source interface {
	ListGuardianNames(ctx context.Context) ([]string, error)
}

// RedisDirectory — двухуровневый кэш множества опекунов.
// L1 — потокобезопасная мапа в памяти шлюза (Hot Path читает только её),
// L2 — Redis Set, общий для всех инстансов. Источник правды — Postgres,
// из которого множество "прогревается" при старте и при переподключении.
// Изменения разлетаются через Pub/Sub сигнал "name:true|false".
type RedisDirectory struct {
	mu    sync.RWMutex
	names map[string]struct{}

	source Source // Используется только в Init/Refresh
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisDirectory(source Source, rdb *redis.Client, logger *zap.Logger) *RedisDirectory {
	return &RedisDirectory{
		names:  make(map[string]struct{}),
		source: source,
		rdb:    rdb,
		logger: logger.Named("guardians"),
	}
}

// IsGuardian — Hot Path проверки №1 политики: сначала RAM.
// На L1-промахе сверяемся с L2: имя могло быть добавлено другим
// инстансом, а Pub/Sub сигнал еще не доехать.
func (d *RedisDirectory) IsGuardian(ctx context.Context, name string) (bool, error) {
	d.mu.RLock()
	_, ok := d.names[name]
	d.mu.RUnlock()
	if ok {
		return true, nil
	}

	added, err := d.rdb.SIsMember(ctx, infra.RedisKeyGuardianSet, name).Result()
	if err != nil {
		return false, err // Вызывающая сторона решает fail-closed
	}
	if added {
		d.apply(name, true)
	}
	return added, nil
}

// Init выполняет холодную загрузку множества из Postgres в L1
// и при необходимости прогревает Redis Set (распределенная блокировка
// SetNX гарантирует, что греет только один инстанс).
func (d *RedisDirectory) Init(ctx context.Context) error {
	names, err := d.source.ListGuardianNames(ctx)
	if err != nil {
		return err
	}

	d.replaceL1(names)

	// Блокировка на прогрев L2, чтобы инстансы не толкались
	ok, err := d.rdb.SetNX(ctx, infra.RedisKeyLockWarmupGuardians, "processing", 30*time.Second).Result()
	if err != nil || !ok {
		return nil // Либо сеть, либо другой инстанс уже греет — не фатально
	}

	count, err := d.rdb.SCard(ctx, infra.RedisKeyGuardianSet).Result()
	if err != nil {
		count = 0
		d.logger.Warn("could not check Redis set size, proceeding with warm-up", zap.Error(err))
	}

	if count == 0 && len(names) > 0 {
		d.logger.Info("Redis guardian set is empty, performing warm-up from DB",
			zap.Int("count", len(names)))
		pipe := d.rdb.Pipeline()
		for _, n := range names {
			pipe.SAdd(ctx, infra.RedisKeyGuardianSet, n)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// StartListener — "живучая" подписка на сигналы изменения множества.
// Обрабатывает переподключения и повторную синхронизацию после разрыва.
func (d *RedisDirectory) StartListener(ctx context.Context) {
	for {
		pubsub := d.rdb.Subscribe(ctx, infra.RedisChanGuardianSignal)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			d.logger.Error("failed to subscribe to guardian signal", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		// После каждого успешного коннекта пересинхронизируемся с БД:
		// за время разрыва могли пролететь сигналы
		if err := d.Init(ctx); err != nil {
			d.logger.Error("guardian sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				// Формат сигнала: "name:true|false"
				parts := strings.SplitN(msg.Payload, ":", 2)
				if len(parts) != 2 {
					d.logger.Error("invalid guardian signal format", zap.String("payload", msg.Payload))
					continue
				}

				name := parts[0]
				added := parts[1] == "true" || parts[1] == "on"
				d.apply(name, added)
			}
		}

		pubsub.Close()
		time.Sleep(1 * time.Second)
	}
}

func (d *RedisDirectory) apply(name string, added bool) {
	d.mu.Lock()
	if added {
		d.names[name] = struct{}{}
	} else {
		delete(d.names, name)
	}
	d.mu.Unlock()

	d.logger.Info("guardian set updated",
		zap.String("name", name), zap.Bool("authorized", added))
}

func (d *RedisDirectory) replaceL1(names []string) {
	fresh := make(map[string]struct{}, len(names))
	for _, n := range names {
		fresh[n] = struct{}{}
	}

	d.mu.Lock()
	d.names = fresh
	d.mu.Unlock()

	d.logger.Info("guardian cache refreshed", zap.Int("count", len(names)))
}
