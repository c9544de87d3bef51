package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"gorm.io/gorm"
)

// ===== CLASSES =====

type ClassPostgreSQL struct {
	db *gorm.DB
}

func NewClassPostgreSQL(db *gorm.DB) repositories.ClassRepository {
	return &ClassPostgreSQL{db: db}
}

func (c *ClassPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *ClassPostgreSQL) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	if err := c.getDB(tx).WithContext(ctx).Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

func (c *ClassPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	var class models.Class
	if err := c.getDB(tx).WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return &class, nil
}

func (c *ClassPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Class, error) {
	var classes []*models.Class
	if err := c.getDB(tx).WithContext(ctx).
		Order("year DESC, name ASC").
		Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

func (c *ClassPostgreSQL) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Class, error) {
	var classes []*models.Class
	if err := c.getDB(tx).WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("id ASC").
		Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to list classes by teacher: %w", err)
	}
	return classes, nil
}

// ===== STUDENTS =====

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	if err := s.getDB(tx).WithContext(ctx).Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(tx).WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&student).Error; err != nil {
		return nil, fmt.Errorf("failed to get student by user: %w", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) ListActiveByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.Student, error) {
	var students []*models.Student
	if err := s.getDB(tx).WithContext(ctx).
		Where("class_id = ? AND status = ?", classID, models.StudentActive).
		Order("name ASC").
		Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students in class: %w", err)
	}
	return students, nil
}

func (s *StudentPostgreSQL) CountByClasses(ctx context.Context, tx *gorm.DB, classIDs []uint) (int64, error) {
	if len(classIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("class_id IN ?", classIDs).
		Distinct("id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count students by classes: %w", err)
	}
	return count, nil
}

// ===== SUBJECTS =====

type SubjectPostgreSQL struct {
	db *gorm.DB
}

func NewSubjectPostgreSQL(db *gorm.DB) repositories.SubjectRepository {
	return &SubjectPostgreSQL{db: db}
}

func (s *SubjectPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SubjectPostgreSQL) Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	if err := s.getDB(tx).WithContext(ctx).Create(subject).Error; err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

func (s *SubjectPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error) {
	var subject models.Subject
	if err := s.getDB(tx).WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subject, nil
}

func (s *SubjectPostgreSQL) CountByClasses(ctx context.Context, tx *gorm.DB, classIDs []uint) (int64, error) {
	if len(classIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := s.getDB(tx).WithContext(ctx).
		Model(&models.Subject{}).
		Where("class_id IN ?", classIDs).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count subjects by classes: %w", err)
	}
	return count, nil
}
