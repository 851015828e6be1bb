package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"carenest/cmd/fx/account_fx"
	"carenest/cmd/fx/billing_fx"
	"carenest/cmd/fx/config_fx"
	"carenest/cmd/fx/controllers_fx"
	"carenest/cmd/fx/db_fx"
	"carenest/cmd/fx/logger_fx"
	"carenest/cmd/fx/memcache_fx"
	"carenest/cmd/fx/payment_service_fx"
	"carenest/cmd/fx/plan_fx"
	"carenest/cmd/fx/promo_fx"
	"carenest/internal/api/controllers"
	"carenest/internal/config"
	"carenest/internal/metrics"
	"carenest/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		account_fx.Module,
		billing_fx.Module,
		promo_fx.Module,
		plan_fx.Module,
		payment_service_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type RouterParams struct {
	fx.In

	Config            *config.Config
	Logger            *zap.Logger
	Metrics           *metrics.BillingMetrics
	PlanController    *controllers.PlanController
	BillingController *controllers.BillingController
	PromoController   *controllers.PromoController
	PaymentController *controllers.PaymentController
}

func ProvideRouter(p RouterParams) *gin.Engine {
	if p.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(p.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(p.Config.CORSOrigin))

	RegisterRoutes(r, p)

	return r
}

func RegisterRoutes(r *gin.Engine, p RouterParams) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(p.Metrics.Handler()))

	plansGroup := r.Group("/plans")
	plansGroup.GET("", p.PlanController.ListPlans)
	plansGroup.GET("/:id", p.PlanController.GetPlan)

	auth := middleware.JWTAuthMiddleware([]byte(p.Config.JWTSecret))

	billingGroup := r.Group("/billing")
	billingGroup.GET("/quote", p.PlanController.Quote)
	billingGroup.GET("/status", auth, p.BillingController.CheckSubscription)
	billingGroup.GET("/status/cached", auth, p.BillingController.CachedStatus)
	billingGroup.POST("/checkout", auth, p.BillingController.CreateCheckout)
	billingGroup.POST("/portal", auth, p.BillingController.CreatePortalSession)

	limiter := middleware.NewRateLimiter(p.Config.PromoRatePerMinute)
	promoGroup := r.Group("/promo", limiter.Middleware())
	promoGroup.POST("/validate", p.PromoController.ValidatePromoCode)

	paymentsGroup := r.Group("/payments")
	paymentsGroup.POST("/webhook", p.PaymentController.HandleWebhook)
}
