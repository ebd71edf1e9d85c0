package db_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hilop/internal/config"
	"hilop/internal/infra"
	"hilop/internal/repositories"
)

var Module = fx.Provide(
	provideDB, provideConsultationRecordRepo)

// provideDB returns nil when POSTGRES_URL is unset; the completion log is
// then disabled.
func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.PostgresURL == "" {
		logger.Info("POSTGRES_URL not set, consultation records are not stored")
		return nil, nil
	}

	db, err := infra.InitPostgresql(cfg.PostgresURL, logger)
	if err != nil {
		return nil, err
	}
	if err := infra.Migrate(db); err != nil {
		infra.ClosePostgresql(db, logger)
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		infra.ClosePostgresql(db, logger)
	}))
	return db, nil
}

func provideConsultationRecordRepo(db *gorm.DB) repositories.ConsultationRecordRepositoryInterface {
	if db == nil {
		return repositories.NopConsultationRecordRepository{}
	}
	return repositories.NewConsultationRecordRepository(db)
}
