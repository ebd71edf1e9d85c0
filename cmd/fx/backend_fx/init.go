package backend_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"hilop/internal/backend"
	"hilop/internal/config"
	"hilop/internal/consultation"
	"hilop/internal/services"
)

var Module = fx.Options(
	fx.Provide(provideBackendClient),
	fx.Provide(
		func(c *backend.Client) consultation.Backend { return c },
		func(c *backend.Client) services.TestLister { return c },
		func(c *backend.Client) services.Forwarder { return c },
	),
)

func provideBackendClient(cfg *config.Config, logger *zap.Logger) *backend.Client {
	return backend.NewClient(backend.Options{
		BaseURL:       cfg.BackendBaseURL,
		Timeout:       cfg.BackendTimeout,
		TestsCacheTTL: cfg.TestsCacheTTL,
	}, logger.Named("backend"))
}
