package config

import (
	"fmt"
	"strings"
	"time"
)

// StorageKind selects the durable store for the session snapshot.
type StorageKind string

const (
	// StorageMemory keeps the snapshot for the life of the process.
	StorageMemory StorageKind = "memory"
	// StorageSQLite persists the snapshot in a local database file.
	StorageSQLite StorageKind = "sqlite"
	// StorageRedis persists the snapshot in Redis.
	StorageRedis StorageKind = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageKind.
func (k *StorageKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "sqlite", "redis":
		*k = StorageKind(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageKind: %q (valid options: memory, sqlite, redis)", v)
	}
}

// StorageConfig contains snapshot storage configuration.
type StorageConfig struct {
	Kind        StorageKind   `env:"STORAGE_KIND"         envDefault:"memory"`
	SQLitePath  string        `env:"STORAGE_SQLITE_PATH"  envDefault:"cotf-console.db"`
	RedisPrefix string        `env:"STORAGE_REDIS_PREFIX" envDefault:"cotf:"`
	RedisTTL    time.Duration `env:"STORAGE_REDIS_TTL"    envDefault:"0s"`
}

// Sanitize falls back to in-memory storage when a backing store is unusable.
func (s *StorageConfig) Sanitize() {
	if s.Kind == "" {
		s.Kind = StorageMemory
	}
	s.SQLitePath = strings.TrimSpace(s.SQLitePath)
	if s.Kind == StorageSQLite && s.SQLitePath == "" {
		s.Kind = StorageMemory
	}
	if s.RedisTTL < 0 {
		s.RedisTTL = 0
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
