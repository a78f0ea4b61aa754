package infra

// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
const RedisNamespace = "vaultgate"

// Ключи состояния
const (
	RedisKeyGuardianSet         = RedisNamespace + ":guardians:set"
	RedisKeyLockWarmupGuardians = RedisNamespace + ":lock:warmup:guardians"
	RedisKeyCooldownLast        = RedisNamespace + ":vault:last_sign_ts"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanGuardianSignal — трансляция изменений множества опекунов
	// всем инстансам шлюза. Формат: "name:true|false".
	RedisChanGuardianSignal = RedisNamespace + ":guardians:signal"
)
