package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"gorm.io/gorm"
)

// AttendanceRepository persists the per-student-per-day ledger
type AttendanceRepository interface {
	// Upsert inserts the record or, when a row for (student, date) already
	// exists, overwrites its status and class. record.ID is set on return.
	Upsert(ctx context.Context, tx *gorm.DB, record *models.AttendanceRecord) error

	GetByStudentAndDate(ctx context.Context, tx *gorm.DB, studentID uint, date time.Time) (*models.AttendanceRecord, error)

	// Newest date first
	ListByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.AttendanceRecord, error)
	List(ctx context.Context, tx *gorm.DB, filters AttendanceFilters) ([]models.AttendanceView, error)

	CountByStatus(ctx context.Context, tx *gorm.DB, studentID uint) ([]StatusCount, error)
}
