package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/gate"
	"github.com/xela07ax/vaultgate-prototype/internal/guardians"
	"github.com/xela07ax/vaultgate-prototype/internal/infra"
	"github.com/xela07ax/vaultgate-prototype/internal/infra/auth"
	"github.com/xela07ax/vaultgate-prototype/internal/repository/postgres"
	"github.com/xela07ax/vaultgate-prototype/internal/vault"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Контекст жизненного цикла фоновых горутин: SIGTERM остановит слушателей
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Инфраструктура и ресурсы
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Fatal("invalid database url", zap.Error(err))
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(appCtx, poolCfg)
	if err != nil {
		logger.Fatal("failed to create pg pool", zap.Error(err))
	}
	defer pool.Close()

	repo := postgres.NewGuardianRepo(pool)
	pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
	if err := repo.Ping(pingCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	pingCancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 3. Множество опекунов: холодная загрузка + живучая подписка на сигналы
	directory := guardians.NewRedisDirectory(repo, rdb, logger)
	if err := directory.Init(appCtx); err != nil {
		logger.Fatal("failed to init guardian directory", zap.Error(err))
	}
	go directory.StartListener(appCtx)

	// Метрики
	reg := prometheus.NewRegistry()
	metrics := gate.NewMetrics(reg)

	// Retries + Circuit Breaker вокруг источника опекунов (fail-closed)
	reliableDir := guardians.NewReliable(directory, func(open bool) {
		state := 0.0
		if open {
			state = 1.0
		}
		metrics.BreakerState.WithLabelValues("guardian-directory").Set(state)
	})

	// 4. Ядро: Vault с общим для всех инстансов cooldown в Redis
	v := vault.New(
		vault.Config{
			Secret:   cfg.Vault.Secret,
			Limits:   map[string]int64{"daily": cfg.Vault.DailyLimit},
			Cooldown: cfg.Vault.Cooldown,
		},
		reliableDir,
		vault.NewRedisCooldown(rdb),
		nil, // реальные часы
		logger,
	)

	// 5. Админка: ключи, валидатор, сервисы
	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse auth public key", zap.Error(err))
	}
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse auth private key", zap.Error(err))
	}

	validator := auth.NewBaseValidator(pubKey)
	authSvc := gate.NewAuthService(cfg.Auth, privKey)
	guardianSvc := gate.NewGuardianService(repo, rdb)

	// Экспорт метрик на отдельном листенере
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	// 6. HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      gate.NewServer(logger, v, guardianSvc, authSvc, validator, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("vaultgated started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("vaultgated stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("vaultgated exited properly")
}
