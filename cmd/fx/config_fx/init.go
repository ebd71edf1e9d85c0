package config_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"hilop/internal/config"
	"hilop/internal/infra"
	"hilop/pkg/middleware"
	"hilop/pkg/session"
)

var Module = fx.Provide(
	config.Load, provideLogger, provideCookieConfig, provideSessionOptions,
)

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger, err := infra.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	if !cfg.DotEnvLoaded {
		logger.Info("no .env file found, using system env")
	}
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger, nil
}

func provideCookieConfig(cfg *config.Config) session.CookieConfig {
	return session.CookieConfig{
		Name:   cfg.AuthCookieName,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
	}
}

func provideSessionOptions(cfg *config.Config, cookie session.CookieConfig) middleware.SessionOptions {
	return middleware.SessionOptions{Cookie: cookie, Secret: []byte(cfg.JWTSecret)}
}
