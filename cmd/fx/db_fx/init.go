package db_fx

import (
	"carenest/internal/config"
	"carenest/internal/infra"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideDB)

func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg.PostgresURL, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(func() {
		infra.ClosePostgresql(db, logger)
	}))
	return db, nil
}
