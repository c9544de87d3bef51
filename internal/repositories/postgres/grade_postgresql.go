package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

type GradePostgreSQL struct {
	db *gorm.DB
}

func NewGradePostgreSQL(db *gorm.DB) repositories.GradeRepository {
	return &GradePostgreSQL{db: db}
}

func (g *GradePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return g.db
}

func (g *GradePostgreSQL) Create(ctx context.Context, tx *gorm.DB, grade *models.GradeRecord) error {
	if err := g.getDB(tx).WithContext(ctx).Create(grade).Error; err != nil {
		return fmt.Errorf("failed to create grade: %w", err)
	}
	return nil
}

func (g *GradePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.GradeRecord, error) {
	var grade models.GradeRecord
	if err := g.getDB(tx).WithContext(ctx).First(&grade, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	return &grade, nil
}

func (g *GradePostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, patch models.GradePatch) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if patch.Score != nil {
		updates["score"] = *patch.Score
	}
	if patch.Term != nil {
		updates["term"] = *patch.Term
	}
	if patch.Letter != nil {
		updates["grade_letter"] = *patch.Letter
	}
	if patch.Remarks != nil {
		updates["remarks"] = *patch.Remarks
	}

	result := g.getDB(tx).WithContext(ctx).
		Model(&models.GradeRecord{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update grade: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (g *GradePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := g.getDB(tx).WithContext(ctx).Delete(&models.GradeRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete grade: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (g *GradePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.GradeFilters) ([]models.GradeView, error) {
	var views []models.GradeView

	query := g.getDB(tx).WithContext(ctx).
		Table("grades").
		Select(`grades.id, grades.student_id, students.name AS student_name,
			grades.subject_id, subjects.name AS subject_name,
			grades.class_id, classes.name AS class_name, grades.teacher_id,
			grades.term, grades.score, grades.grade_letter AS letter, grades.remarks,
			grades.created_at, grades.updated_at`).
		Joins("JOIN students ON students.id = grades.student_id").
		Joins("JOIN subjects ON subjects.id = grades.subject_id").
		Joins("LEFT JOIN classes ON classes.id = grades.class_id")

	query = applyGradeFilters(query, filters)
	query = applyPagination(query, filters.Limit, filters.Offset)

	if err := query.Order("grades.created_at DESC, grades.id DESC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return views, nil
}

func (g *GradePostgreSQL) ListScores(ctx context.Context, tx *gorm.DB, filters repositories.GradeFilters) ([]repositories.ScoreRow, error) {
	var rows []repositories.ScoreRow

	query := g.getDB(tx).WithContext(ctx).
		Table("grades").
		Select("grades.id, grades.student_id, grades.subject_id, grades.class_id, grades.score")

	query = applyGradeFilters(query, filters)

	if err := query.Order("grades.id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return rows, nil
}

func (g *GradePostgreSQL) ListSubjectScores(ctx context.Context, tx *gorm.DB, studentID uint) ([]models.SubjectScore, error) {
	var scores []models.SubjectScore
	if err := g.getDB(tx).WithContext(ctx).
		Table("grades").
		Select(`grades.id AS grade_id, grades.subject_id, subjects.name AS subject_name,
			grades.term, grades.score, grades.grade_letter AS letter, grades.remarks`).
		Joins("JOIN subjects ON subjects.id = grades.subject_id").
		Where("grades.student_id = ?", studentID).
		Order("subjects.name ASC, grades.term ASC").
		Scan(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to list subject scores: %w", err)
	}
	return scores, nil
}

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

func (a *AuditPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	db := a.db
	if tx != nil {
		db = tx
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
