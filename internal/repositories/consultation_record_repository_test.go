package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	"hilop/internal/infra"
	"hilop/internal/models/db_models"
)

func newMockRepo(t *testing.T) (*ConsultationRecordRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := infra.OpenPostgresql(postgres.New(postgres.Config{Conn: sqlDB}), zap.NewNop())
	require.NoError(t, err)
	return NewConsultationRecordRepository(db), mock
}

func TestCreateRecordIgnoresDuplicates(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "consultation_records" .* ON CONFLICT \("test_result_id"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := &db_models.ConsultationRecord{
		FlowID:       "flow-1",
		Subject:      "user-1",
		TestID:       "t1",
		TestResultID: "tr-1",
		AnswersCount: 5,
		Presentation: "modal",
		PlanIDs:      pq.StringArray{"plan-1"},
	}
	require.NoError(t, repo.CreateRecord(context.Background(), rec))
	assert.NotZero(t, rec.ID)
	assert.NotZero(t, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBySubject(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "subject", "test_id", "test_result_id", "answers_count", "presentation"}).
		AddRow("0b6c2f34-8b0a-4c7e-9d4e-0f8f5a3b2c11", "user-1", "t1", "tr-2", 4, "redirect").
		AddRow("5f0e7c0a-1d2b-4e3f-8a9b-6c7d8e9f0a1b", "user-1", "t1", "tr-1", 5, "modal")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "consultation_records" WHERE subject = $1`)).
		WillReturnRows(rows)

	records, err := repo.ListBySubject(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tr-2", records[0].TestResultID)
	assert.Equal(t, 5, records[1].AnswersCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopRepository(t *testing.T) {
	var repo ConsultationRecordRepositoryInterface = NopConsultationRecordRepository{}
	assert.NoError(t, repo.CreateRecord(context.Background(), &db_models.ConsultationRecord{}))
	records, err := repo.ListBySubject(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
