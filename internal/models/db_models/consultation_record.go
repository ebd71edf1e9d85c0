package db_models

import (
	"github.com/lib/pq"
)

// ConsultationRecord is one completed assessment as the gateway saw it.
type ConsultationRecord struct {
	BaseModel
	FlowID               string         `gorm:"type:varchar(64);not null"`
	Subject              string         `gorm:"type:varchar(255);index;not null"`
	TestID               string         `gorm:"type:varchar(64);not null"`
	TestResultID         string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	AnswersCount         int            `gorm:"type:int;not null"`
	BMIValue             *float64       `gorm:"type:numeric(5,1)"`
	RecommendedProductID string         `gorm:"type:varchar(64)"`
	Presentation         string         `gorm:"type:varchar(16)"` // "modal" | "redirect", empty when the cart step failed
	PlanIDs              pq.StringArray `gorm:"type:text[]"`
	CartError            string         `gorm:"type:text"`
}
