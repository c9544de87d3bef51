package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetCounts reads every overview counter in one round trip. Inactive
// students and teachers are not counted.
func (r *dashboardRepository) GetCounts(ctx context.Context, tx *gorm.DB) (*repositories.SchoolCounts, error) {
	db := r.getDB(tx)
	var counts repositories.SchoolCounts

	err := db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM students WHERE status = ?) AS students,
			(SELECT COUNT(*) FROM teachers WHERE status = ?) AS teachers,
			(SELECT COUNT(*) FROM classes) AS classes,
			(SELECT COUNT(*) FROM subjects) AS subjects`,
		models.StudentActive, models.UserActive,
	).Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get school counts: %w", err)
	}

	return &counts, nil
}
