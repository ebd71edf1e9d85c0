package services

import (
	"context"

	"go.uber.org/zap"

	"hilop/internal/backend"
	"hilop/internal/bmi"
	"hilop/internal/consultation"
	"hilop/internal/models/request_models"
	"hilop/internal/models/response_models"
	"hilop/pkg/localized"
	"hilop/pkg/session"
)

// TestLister is the part of the backend client the test picker needs.
type TestLister interface {
	ListTests(ctx context.Context, sess session.Session) ([]backend.Test, error)
}

type ConsultationServiceInterface interface {
	ListTests(ctx context.Context, sess session.Session, locale localized.Locale) ([]response_models.TestResponse, error)
	CreateFlow(sess session.Session, locale localized.Locale) response_models.FlowResponse
	GetFlow(flowID string, sess session.Session, locale localized.Locale) (response_models.FlowResponse, error)
	SelectTest(ctx context.Context, flowID string, sess session.Session, req request_models.SelectTestRequest, locale localized.Locale) (response_models.FlowResponse, error)
	Answer(ctx context.Context, flowID string, sess session.Session, req request_models.AnswerRequest, locale localized.Locale) (response_models.FlowResponse, error)
	Back(flowID string, sess session.Session, locale localized.Locale) (response_models.FlowResponse, error)
	CloseFlow(flowID string, sess session.Session) error
}

type ConsultationService struct {
	tests    TestLister
	registry *consultation.Registry
	logger   *zap.Logger
}

func NewConsultationService(tests TestLister, registry *consultation.Registry, logger *zap.Logger) ConsultationServiceInterface {
	return &ConsultationService{tests: tests, registry: registry, logger: logger}
}

func (s *ConsultationService) ListTests(ctx context.Context, sess session.Session, locale localized.Locale) ([]response_models.TestResponse, error) {
	tests, err := s.tests.ListTests(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := make([]response_models.TestResponse, 0, len(tests))
	for _, t := range tests {
		out = append(out, consultation.RenderTest(t, locale))
	}
	return out, nil
}

func (s *ConsultationService) CreateFlow(sess session.Session, locale localized.Locale) response_models.FlowResponse {
	f := s.registry.Create(sess.Owner())
	s.logger.Debug("consultation flow created", zap.String("flow_id", f.ID()))
	return f.View(locale)
}

func (s *ConsultationService) GetFlow(flowID string, sess session.Session, locale localized.Locale) (response_models.FlowResponse, error) {
	f, err := s.registry.Get(flowID, sess.Owner())
	if err != nil {
		return response_models.FlowResponse{}, err
	}
	return f.View(locale), nil
}

// SelectTest and the other flow operations return the view even on error so
// the page can show the flow's message next to the failure.
func (s *ConsultationService) SelectTest(ctx context.Context, flowID string, sess session.Session, req request_models.SelectTestRequest, locale localized.Locale) (response_models.FlowResponse, error) {
	f, err := s.registry.Get(flowID, sess.Owner())
	if err != nil {
		return response_models.FlowResponse{}, err
	}
	err = f.SelectTest(ctx, sess, backend.ID(req.TestID))
	return f.View(locale), err
}

func (s *ConsultationService) Answer(ctx context.Context, flowID string, sess session.Session, req request_models.AnswerRequest, locale localized.Locale) (response_models.FlowResponse, error) {
	f, err := s.registry.Get(flowID, sess.Owner())
	if err != nil {
		return response_models.FlowResponse{}, err
	}

	in := consultation.AnswerInput{AnswerID: backend.ID(req.AnswerID)}
	if req.BMI != nil {
		in.BMI = &bmi.Input{Feet: req.BMI.Feet, Inches: req.BMI.Inches, WeightKg: req.BMI.Weight}
	}
	err = f.Answer(ctx, sess, in)
	return f.View(locale), err
}

func (s *ConsultationService) Back(flowID string, sess session.Session, locale localized.Locale) (response_models.FlowResponse, error) {
	f, err := s.registry.Get(flowID, sess.Owner())
	if err != nil {
		return response_models.FlowResponse{}, err
	}
	err = f.Back()
	return f.View(locale), err
}

func (s *ConsultationService) CloseFlow(flowID string, sess session.Session) error {
	return s.registry.Delete(flowID, sess.Owner())
}
