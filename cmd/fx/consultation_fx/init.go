package consultation_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"hilop/internal/api/controllers"
	"hilop/internal/config"
	"hilop/internal/consultation"
	"hilop/internal/repositories"
	"hilop/internal/services"
)

var Module = fx.Provide(
	provideRecordService, provideRegistry, provideConsultationService, provideConsultationController,
)

func provideRecordService(repo repositories.ConsultationRecordRepositoryInterface) services.ConsultationRecordServiceInterface {
	return services.NewConsultationRecordService(repo)
}

func provideRegistry(
	lc fx.Lifecycle,
	cfg *config.Config,
	b consultation.Backend,
	recorder services.ConsultationRecordServiceInterface,
	logger *zap.Logger) *consultation.Registry {

	registry := consultation.NewRegistry(cfg.FlowTTL, consultation.Deps{
		Backend:  b,
		Recorder: recorder,
		Logger:   logger.Named("consultation"),
	})
	lc.Append(fx.StartStopHook(registry.Start, registry.Stop))
	return registry
}

func provideConsultationService(tests services.TestLister, registry *consultation.Registry, logger *zap.Logger) services.ConsultationServiceInterface {
	return services.NewConsultationService(tests, registry, logger)
}

func provideConsultationController(
	consultationService services.ConsultationServiceInterface,
	recordService services.ConsultationRecordServiceInterface) *controllers.ConsultationController {
	return controllers.NewConsultationController(consultationService, recordService)
}
