package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/config"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/adapters/memory"
	redisadapter "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/adapters/redis"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/adapters/sqlite"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports"
)

// StorageConfig contains configuration for the snapshot storage.
type StorageConfig struct {
	Storage config.StorageConfig
	Redis   config.RedisConfig
	Logger  *slog.Logger
}

// OpenedStorage is a snapshot storage plus the release of whatever backs it.
type OpenedStorage struct {
	ports.Storage
	Kind  config.StorageKind
	close func() error
}

// Close releases the backing connection, if any.
func (s *OpenedStorage) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage builds the storage selected by cfg.Storage.Kind.
func OpenStorage(ctx context.Context, cfg StorageConfig) (*OpenedStorage, error) {
	switch cfg.Storage.Kind {
	case config.StorageSQLite:
		st, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		logInfo(ctx, cfg.Logger, "snapshot storage ready", "kind", cfg.Storage.Kind, "path", cfg.Storage.SQLitePath)
		return &OpenedStorage{Storage: st, Kind: config.StorageSQLite, close: st.Close}, nil

	case config.StorageRedis:
		client, err := ConnectRedis(ctx, RedisConnectConfig{Redis: cfg.Redis, Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		st := redisadapter.NewStorageWithOptions(client, redisadapter.StorageOptions{
			Prefix: cfg.Storage.RedisPrefix,
			TTL:    cfg.Storage.RedisTTL,
		})
		logInfo(ctx, cfg.Logger, "snapshot storage ready", "kind", cfg.Storage.Kind, "prefix", cfg.Storage.RedisPrefix)
		return &OpenedStorage{Storage: st, Kind: config.StorageRedis, close: client.Close}, nil

	case config.StorageMemory, "":
		logInfo(ctx, cfg.Logger, "snapshot storage ready", "kind", config.StorageMemory)
		return &OpenedStorage{Storage: memory.NewStorage(), Kind: config.StorageMemory}, nil

	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Storage.Kind)
	}
}

func logInfo(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.InfoContext(ctx, msg, args...)
	}
}
