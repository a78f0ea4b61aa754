package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSecret — публично известный запасной ключ для демо-режима.
// Используется ТОЛЬКО если VAULT_SECRET не задан; в проде это провал ИБ,
// но контракт требует сохранить его для совместимости.
const DefaultSecret = "demo-unsafe-key"

// Config — корневая структура конфигурации шлюза подписи.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig описывает подключение к PostgreSQL (хранилище опекунов).
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (кэш множества + Pub/Sub + cooldown).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит пути к RSA ключам и учетку оператора админки.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`

	// Оператор задается конфигом: внешней таблицы пользователей нет,
	// шлюз аутентифицирует только транспорт админки, не акторов политики.
	OperatorUsername     string `mapstructure:"operator_username"`
	OperatorPasswordHash string `mapstructure:"operator_password_hash"` // bcrypt

	PublicKey  []byte
	PrivateKey []byte
}

// VaultConfig — параметры самой политики подписи.
type VaultConfig struct {
	SecretPath string        `mapstructure:"secret_path"` // Файл с ключом HMAC
	DailyLimit int64         `mapstructure:"daily_limit"` // 0 — проверка лимита выключена
	Cooldown   time.Duration `mapstructure:"cooldown"`

	// Сырой ключ HMAC. Никогда не логируется и не сериализуется.
	Secret []byte `mapstructure:"-" json:"-"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: VAULT_COOLDOWN=10s перекроет vault.cooldown
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Ключевой материал: сначала ENV, потом файл по пути из конфига
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")
	cfg.Vault.Secret = LoadSecret(cfg.Vault.SecretPath)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("vault.daily_limit", int64(1e18)) // 1 ETH в wei
	v.SetDefault("vault.cooldown", 5*time.Second)
}

// LoadSecret возвращает ключ HMAC: VAULT_SECRET из ENV, файл по пути,
// либо демо-ключ. Порядок важен: ENV всегда главнее.
func LoadSecret(path string) []byte {
	if data := os.Getenv("VAULT_SECRET"); data != "" {
		return []byte(data)
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	return []byte(DefaultSecret)
}

// loadKeyResource — универсальный хелпер: ключ либо напрямую в ENV
// (для Docker/K8s), либо файлом по пути из конфига.
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
