package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

type AttendancePostgreSQL struct {
	db *gorm.DB
}

func NewAttendancePostgreSQL(db *gorm.DB) repositories.AttendanceRepository {
	return &AttendancePostgreSQL{db: db}
}

func (a *AttendancePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Upsert relies on the unique (student_id, date) index so concurrent marks
// for the same day collapse into one row, last writer wins.
func (a *AttendancePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, record *models.AttendanceRecord) error {
	err := a.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "class_id", "updated_at"}),
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return nil
}

func (a *AttendancePostgreSQL) GetByStudentAndDate(ctx context.Context, tx *gorm.DB, studentID uint, date time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := a.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND date = ?", studentID, date).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &record, nil
}

func (a *AttendancePostgreSQL) ListByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.AttendanceRecord, error) {
	var records []*models.AttendanceRecord
	if err := a.getDB(tx).WithContext(ctx).
		Where("class_id = ?", classID).
		Order("date DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance by class: %w", err)
	}
	return records, nil
}

func (a *AttendancePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttendanceFilters) ([]models.AttendanceView, error) {
	var views []models.AttendanceView

	query := a.getDB(tx).WithContext(ctx).
		Table("attendance").
		Select(`attendance.id, attendance.student_id, students.name AS student_name,
			attendance.class_id, classes.name AS class_name, attendance.date, attendance.status`).
		Joins("JOIN students ON students.id = attendance.student_id").
		Joins("JOIN classes ON classes.id = attendance.class_id")

	query = applyAttendanceFilters(query, filters)
	query = applyPagination(query, filters.Limit, filters.Offset)

	if err := query.Order("attendance.date DESC, attendance.id DESC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return views, nil
}

func (a *AttendancePostgreSQL) CountByStatus(ctx context.Context, tx *gorm.DB, studentID uint) ([]repositories.StatusCount, error) {
	var counts []repositories.StatusCount
	if err := a.getDB(tx).WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Select("status, COUNT(*) AS count").
		Where("student_id = ?", studentID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count attendance by status: %w", err)
	}
	return counts, nil
}
