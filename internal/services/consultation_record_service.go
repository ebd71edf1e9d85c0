package services

import (
	"context"

	"hilop/internal/consultation"
	"hilop/internal/models/db_models"
	"hilop/internal/models/response_models"
	"hilop/internal/repositories"
	"hilop/pkg/session"
	"hilop/pkg/utils"
)

const defaultHistoryLimit = 20

type ConsultationRecordServiceInterface interface {
	consultation.CompletionRecorder
	History(ctx context.Context, sess session.Session, limit int) ([]response_models.ConsultationRecordResponse, error)
}

type ConsultationRecordService struct {
	repo repositories.ConsultationRecordRepositoryInterface
}

func NewConsultationRecordService(repo repositories.ConsultationRecordRepositoryInterface) ConsultationRecordServiceInterface {
	return &ConsultationRecordService{repo: repo}
}

func (s *ConsultationRecordService) RecordCompletion(ctx context.Context, c consultation.Completion) error {
	record := &db_models.ConsultationRecord{
		FlowID:               c.FlowID,
		Subject:              c.Owner,
		TestID:               c.TestID.String(),
		TestResultID:         c.TestResultID.String(),
		AnswersCount:         c.Data.AnswersCount,
		BMIValue:             c.Data.BMIValue,
		RecommendedProductID: c.Data.RecommendedProductID.String(),
		CartError:            c.CartError,
	}
	if c.Outcome != nil {
		record.Presentation = string(c.Outcome.Presentation)
	}
	for _, p := range c.Data.TreatmentPlans {
		record.PlanIDs = append(record.PlanIDs, p.ID.String())
	}
	return s.repo.CreateRecord(ctx, record)
}

func (s *ConsultationRecordService) History(ctx context.Context, sess session.Session, limit int) ([]response_models.ConsultationRecordResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	records, err := s.repo.ListBySubject(ctx, sess.Owner(), limit)
	if err != nil {
		return nil, err
	}

	out := make([]response_models.ConsultationRecordResponse, 0, len(records))
	for _, r := range records {
		planIDs := []string(r.PlanIDs)
		if planIDs == nil {
			planIDs = []string{}
		}
		out = append(out, response_models.ConsultationRecordResponse{
			ID:                   r.ID.String(),
			TestID:               r.TestID,
			TestResultID:         r.TestResultID,
			AnswersCount:         r.AnswersCount,
			BMIValue:             r.BMIValue,
			RecommendedProductID: r.RecommendedProductID,
			Presentation:         r.Presentation,
			PlanIDs:              planIDs,
			CompletedAt:          utils.FormatRFC3339IST(r.CreatedTime()),
		})
	}
	return out, nil
}
