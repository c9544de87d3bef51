package services

import (
	"context"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Use business validator types
type MarkAttendanceRequest = validator.MarkAttendanceRequest
type MarkBatchRequest = validator.MarkBatchRequest
type AttendanceEntry = validator.AttendanceEntry
type AddGradeRequest = validator.AddGradeRequest
type UpdateGradeRequest = validator.UpdateGradeRequest

// DistributionScope selects the grades a distribution is computed over.
// Both nil means all grades.
type DistributionScope struct {
	ClassID   *uint `json:"class_id,omitempty"`
	SubjectID *uint `json:"subject_id,omitempty"`
}

// ===== SERVICE INTERFACES =====

// AccessControlGate decides whether a session may run an operation
type AccessControlGate interface {
	Authorize(session *models.SessionSnapshot, requiredRoles []models.UserRole, target *models.OwnershipTarget) (Decision, error)
}

// AttendanceService is the per-student-per-day attendance ledger
type AttendanceService interface {
	MarkAttendance(ctx context.Context, session *models.SessionSnapshot, req *MarkAttendanceRequest) (*models.AttendanceRecord, error)
	MarkBatch(ctx context.Context, session *models.SessionSnapshot, req *MarkBatchRequest) (*models.BatchResult, error)
	GetByClass(ctx context.Context, session *models.SessionSnapshot, classID uint) ([]*models.AttendanceRecord, error)
	GetStudentsInClass(ctx context.Context, session *models.SessionSnapshot, classID uint) ([]*models.Student, error)
	Summarize(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.AttendanceSummary, error)
	ListAll(ctx context.Context, session *models.SessionSnapshot, filters repositories.AttendanceFilters) ([]models.AttendanceView, error)
}

// GradeService is the grade book
type GradeService interface {
	Classify(score float64) (models.GradeLetter, string, error)
	AddGrade(ctx context.Context, session *models.SessionSnapshot, req *AddGradeRequest) (*models.GradeRecord, error)
	UpdateGrade(ctx context.Context, session *models.SessionSnapshot, gradeID uint, req *UpdateGradeRequest) (*models.GradeRecord, error)
	DeleteGrade(ctx context.Context, session *models.SessionSnapshot, gradeID uint) error
	GetByID(ctx context.Context, session *models.SessionSnapshot, gradeID uint) (*models.GradeRecord, error)
	ListAll(ctx context.Context, session *models.SessionSnapshot, filters repositories.GradeFilters) ([]models.GradeView, error)
}

// AnalyticsService computes read-only summaries over grades and attendance
type AnalyticsService interface {
	ClassAverage(ctx context.Context, session *models.SessionSnapshot, classID uint) (*models.ClassAverage, error)
	GradeDistribution(ctx context.Context, session *models.SessionSnapshot, scope DistributionScope) (*models.GradeDistribution, error)
	StudentGPA(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.StudentGPA, error)
	StudentRank(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.StudentRank, error)
	TeacherDashboard(ctx context.Context, session *models.SessionSnapshot, teacherID uint) (*models.TeacherDashboard, error)
	StudentDashboard(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.StudentDashboard, error)
	AdminOverview(ctx context.Context, session *models.SessionSnapshot) (*models.AdminOverview, error)
}

// AuthService turns credentials into session snapshots
type AuthService interface {
	Login(ctx context.Context, username, credential string) (*models.SessionSnapshot, error)
	SessionForUser(ctx context.Context, user *models.User) (*models.SessionSnapshot, error)
	HashCredential(plain string) (string, error)
}

// ReportService exports records as XLSX workbooks
type ReportService interface {
	ExportGrades(ctx context.Context, session *models.SessionSnapshot, filters repositories.GradeFilters) ([]byte, error)
	ExportClassAttendance(ctx context.Context, session *models.SessionSnapshot, classID uint) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Gate() AccessControlGate
	Attendance() AttendanceService
	Grade() GradeService
	Analytics() AnalyticsService
	Auth() AuthService
	Report() ReportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
