package config_fx

import (
	"carenest/internal/config"

	"go.uber.org/fx"
)

var Module = fx.Provide(config.LoadConfig)
