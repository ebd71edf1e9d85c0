package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hilop/internal/models/db_models"
)

type ConsultationRecordRepositoryInterface interface {
	CreateRecord(ctx context.Context, record *db_models.ConsultationRecord) error
	ListBySubject(ctx context.Context, subject string, limit int) ([]db_models.ConsultationRecord, error)
}

type ConsultationRecordRepository struct {
	db *gorm.DB
}

func NewConsultationRecordRepository(db *gorm.DB) *ConsultationRecordRepository {
	return &ConsultationRecordRepository{db: db}
}

// CreateRecord ignores a second record for the same test result.
func (r *ConsultationRecordRepository) CreateRecord(ctx context.Context, record *db_models.ConsultationRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "test_result_id"}}, DoNothing: true}).
		Create(record).Error
}

func (r *ConsultationRecordRepository) ListBySubject(ctx context.Context, subject string, limit int) ([]db_models.ConsultationRecord, error) {
	var records []db_models.ConsultationRecord
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// NopConsultationRecordRepository stands in when no database is configured.
type NopConsultationRecordRepository struct{}

func (NopConsultationRecordRepository) CreateRecord(context.Context, *db_models.ConsultationRecord) error {
	return nil
}

func (NopConsultationRecordRepository) ListBySubject(context.Context, string, int) ([]db_models.ConsultationRecord, error) {
	return []db_models.ConsultationRecord{}, nil
}
