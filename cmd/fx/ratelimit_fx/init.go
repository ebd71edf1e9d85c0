package ratelimit_fx

import (
	"time"

	"go.uber.org/fx"

	"hilop/internal/config"
	"hilop/pkg/middleware"
)

const cleanupInterval = time.Minute

var Module = fx.Provide(provideRateLimiter)

func provideRateLimiter(lc fx.Lifecycle, cfg *config.Config) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	stop := make(chan struct{})
	done := make(chan struct{})
	lc.Append(fx.StartStopHook(
		func() {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cleanupInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						rl.Cleanup()
					case <-stop:
						return
					}
				}
			}()
		},
		func() {
			close(stop)
			<-done
		},
	))
	return rl
}
