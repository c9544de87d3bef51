package repositories

import (
	"context"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"gorm.io/gorm"
)

// GradeRepository persists grade records. Aggregation happens above this layer.
type GradeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, grade *models.GradeRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.GradeRecord, error)

	// Update writes only the fields present in the patch and refreshes updated_at
	Update(ctx context.Context, tx *gorm.DB, id uint, patch models.GradePatch) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// List joins student, subject and class names
	List(ctx context.Context, tx *gorm.DB, filters GradeFilters) ([]models.GradeView, error)

	// ListScores returns matching scores ordered by grade id ascending
	ListScores(ctx context.Context, tx *gorm.DB, filters GradeFilters) ([]ScoreRow, error)

	ListSubjectScores(ctx context.Context, tx *gorm.DB, studentID uint) ([]models.SubjectScore, error)
}

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error
}

// SchoolCounts holds the admin overview counters
type SchoolCounts struct {
	Students int64 `json:"students"`
	Teachers int64 `json:"teachers"`
	Classes  int64 `json:"classes"`
	Subjects int64 `json:"subjects"`
}

// DashboardRepository interface for overview counters
type DashboardRepository interface {
	GetCounts(ctx context.Context, tx *gorm.DB) (*SchoolCounts, error)
}
