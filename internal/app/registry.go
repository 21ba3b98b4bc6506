package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	cfgpkg "github.com/taoyao-code/iohc-gateway/internal/config"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
	"github.com/taoyao-code/iohc-gateway/internal/storage/docstore"
	pgstorage "github.com/taoyao-code/iohc-gateway/internal/storage/pg"
	redisstorage "github.com/taoyao-code/iohc-gateway/internal/storage/redis"
	"go.uber.org/zap"
)

// NewRegistryStore 按 registry.backend 选择设备文档存储
func NewRegistryStore(cfg cfgpkg.RegistryConfig, rc *redisstorage.Client, pool *pgxpool.Pool, logger *zap.Logger) (registry.Store, error) {
	switch cfg.Backend {
	case cfgpkg.RegistryBackendFile:
		logger.Info("device registry: file", zap.String("path", cfg.File.Path), zap.String("save_mode", cfg.File.SaveMode))
		return docstore.New(cfg.File.Path, docstore.SaveMode(cfg.File.SaveMode), logger), nil
	case cfgpkg.RegistryBackendRedis:
		if rc == nil {
			return nil, fmt.Errorf("registry backend %q requires redis", cfg.Backend)
		}
		logger.Info("device registry: redis", zap.String("key", cfg.RedisKey))
		return redisstorage.NewDeviceStore(rc, cfg.RedisKey), nil
	case cfgpkg.RegistryBackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("registry backend %q requires database", cfg.Backend)
		}
		logger.Info("device registry: postgres", zap.String("set", cfg.Set))
		return pgstorage.NewDeviceStore(pool, cfg.Set), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}

// NeedsDatabase 当前配置是否需要连接数据库
func NeedsDatabase(cfg *cfgpkg.Config) bool {
	return cfg.Registry.Backend == cfgpkg.RegistryBackendPostgres
}

