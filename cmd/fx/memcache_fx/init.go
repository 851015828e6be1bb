package memcache_fx

import (
	"context"

	"carenest/internal/config"
	"carenest/internal/infra"
	mem "carenest/pkg/memcache"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(provideStatusCache)

// provideStatusCache uses Redis when REDIS_ADDR is set and an in-process map otherwise.
func provideStatusCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (mem.StatusCache, error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory status cache")
		return mem.NewMemoryStatusCache(), nil
	}

	client, err := infra.ConnectRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return mem.NewRedisStatusCache(client, ""), nil
}
