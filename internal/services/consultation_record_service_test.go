package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hilop/internal/backend"
	"hilop/internal/consultation"
	"hilop/internal/models/db_models"
	"hilop/pkg/session"
)

type memRecordRepo struct {
	created []*db_models.ConsultationRecord
	list    []db_models.ConsultationRecord
	limit   int
}

func (r *memRecordRepo) CreateRecord(_ context.Context, rec *db_models.ConsultationRecord) error {
	r.created = append(r.created, rec)
	return nil
}

func (r *memRecordRepo) ListBySubject(_ context.Context, _ string, limit int) ([]db_models.ConsultationRecord, error) {
	r.limit = limit
	return r.list, nil
}

func TestRecordCompletionMapsOutcome(t *testing.T) {
	repo := &memRecordRepo{}
	svc := NewConsultationRecordService(repo)
	bmiValue := 24.2

	err := svc.RecordCompletion(context.Background(), consultation.Completion{
		FlowID:       "flow-1",
		Owner:        "user-1",
		TestID:       "t1",
		TestResultID: "tr-1",
		Data: backend.CompletionData{
			AnswersCount:         6,
			BMIValue:             &bmiValue,
			RecommendedProductID: "12",
			TreatmentPlans:       []backend.TreatmentPlan{{ID: "plan-1"}, {ID: "plan-2"}},
		},
		Outcome: &consultation.Outcome{Presentation: consultation.PresentationModal},
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	rec := repo.created[0]
	assert.Equal(t, "user-1", rec.Subject)
	assert.Equal(t, "tr-1", rec.TestResultID)
	assert.Equal(t, 6, rec.AnswersCount)
	assert.Equal(t, "12", rec.RecommendedProductID)
	assert.Equal(t, "modal", rec.Presentation)
	assert.Equal(t, pq.StringArray{"plan-1", "plan-2"}, rec.PlanIDs)
}

func TestRecordCompletionWithCartFailure(t *testing.T) {
	repo := &memRecordRepo{}
	svc := NewConsultationRecordService(repo)

	require.NoError(t, svc.RecordCompletion(context.Background(), consultation.Completion{
		TestResultID: "tr-2",
		CartError:    "Out of stock",
	}))
	assert.Empty(t, repo.created[0].Presentation)
	assert.Equal(t, "Out of stock", repo.created[0].CartError)
}

func TestHistory(t *testing.T) {
	id := uuid.New()
	repo := &memRecordRepo{list: []db_models.ConsultationRecord{{
		BaseModel:    db_models.BaseModel{ID: id, CreatedAt: 1758706920},
		TestID:       "t1",
		TestResultID: "tr-1",
		AnswersCount: 3,
		Presentation: "redirect",
	}}}
	svc := NewConsultationRecordService(repo)

	out, err := svc.History(context.Background(), session.Session{Token: "tok", Subject: "user-1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultHistoryLimit, repo.limit)
	require.Len(t, out, 1)
	assert.Equal(t, id.String(), out[0].ID)
	assert.Equal(t, []string{}, out[0].PlanIDs)
	assert.Equal(t, "2025-09-24T15:12:00+05:30", out[0].CompletedAt)
}
