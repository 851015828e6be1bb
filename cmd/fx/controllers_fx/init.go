package controllers_fx

import (
	"carenest/internal/api/controllers"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(controllers.NewPlanController),
	fx.Provide(controllers.NewBillingController),
	fx.Provide(controllers.NewPromoController))
