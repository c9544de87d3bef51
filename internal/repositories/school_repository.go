package repositories

import (
	"context"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"gorm.io/gorm"
)

type ClassRepository interface {
	Create(ctx context.Context, tx *gorm.DB, class *models.Class) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Class, error)

	// Classes whose owner is the given teacher
	ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Class, error)
}

type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.Student, error)

	// Only students with status active
	ListActiveByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.Student, error)

	// Distinct students assigned to any of the classes
	CountByClasses(ctx context.Context, tx *gorm.DB, classIDs []uint) (int64, error)
}

type SubjectRepository interface {
	Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error)
	CountByClasses(ctx context.Context, tx *gorm.DB, classIDs []uint) (int64, error)
}
