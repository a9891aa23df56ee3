package schemacache

import "time"

const (
	// DefaultIdentity namespaces cache keys when no identity is configured.
	DefaultIdentity = "github.com/aalemi-dev/stdlib-events/schemacache.CacheAdapter"

	// BackendMemory keeps entries in process memory.
	BackendMemory = "memory"

	// BackendRedis keeps entries in a shared redis instance.
	BackendRedis = "redis"

	// DefaultRedisDialTimeout bounds the initial connection to redis.
	DefaultRedisDialTimeout = 5 * time.Second
)

// Config selects the store behind the cache and how keys are namespaced.
type Config struct {
	// Identity is mixed into every key so that several adapters can share one store.
	// Defaults to DefaultIdentity.
	Identity string `yaml:"identity" env:"SCHEMA_CACHE_IDENTITY"`

	// Backend is "memory" (default) or "redis".
	Backend string `yaml:"backend" env:"SCHEMA_CACHE_BACKEND" env-default:"memory"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds the connection settings of RedisStore.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"SCHEMA_CACHE_REDIS_ADDR" env-default:"localhost:6379"`
	Username string `yaml:"username" env:"SCHEMA_CACHE_REDIS_USERNAME"`
	Password string `yaml:"password" env:"SCHEMA_CACHE_REDIS_PASSWORD" json:"-"` //nolint:gosec
	DB       int    `yaml:"db" env:"SCHEMA_CACHE_REDIS_DB"`

	// KeyPrefix is prepended to every key written by the store.
	KeyPrefix string `yaml:"key_prefix" env:"SCHEMA_CACHE_REDIS_KEY_PREFIX"`

	DialTimeout time.Duration `yaml:"dial_timeout" env:"SCHEMA_CACHE_REDIS_DIAL_TIMEOUT"`
}
