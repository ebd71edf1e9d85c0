package controllers_fx

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"hilop/internal/api"
	"hilop/internal/api/controllers"
	"hilop/internal/config"
	"hilop/internal/services"
	"hilop/pkg/middleware"
)

var Module = fx.Options(
	fx.Provide(controllers.NewBMIController),
	fx.Provide(controllers.NewHealthController),
	fx.Provide(controllers.NewProxyController),
	fx.Provide(provideProxyService),
	fx.Provide(provideRouter))

func provideProxyService(backend services.Forwarder, cfg *config.Config, logger *zap.Logger) services.ProxyServiceInterface {
	return services.NewProxyService(backend, cfg.JWTSecret, logger.Named("proxy"))
}

type routerParams struct {
	fx.In

	Config       *config.Config
	Session      middleware.SessionOptions
	RateLimiter  *middleware.RateLimiter
	Logger       *zap.Logger
	Consultation *controllers.ConsultationController
	BMI          *controllers.BMIController
	Proxy        *controllers.ProxyController
	Health       *controllers.HealthController
}

func provideRouter(p routerParams) *gin.Engine {
	if !p.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(api.RouterConfig{
		Session:     p.Session,
		CORSOrigins: p.Config.CORSOrigins,
		RateLimiter: p.RateLimiter,
		Logger:      p.Logger,
	}, api.Controllers{
		Consultation: p.Consultation,
		BMI:          p.BMI,
		Proxy:        p.Proxy,
		Health:       p.Health,
	})
}
