package repositories

import (
	"context"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository interface for account lookups
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
}

type TeacherRepository interface {
	Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.Teacher, error)
}
