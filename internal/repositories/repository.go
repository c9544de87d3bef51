package repositories

import "context"

// Repository aggregates every repository used by the records core
type Repository interface {
	// Accounts
	User() UserRepository
	Teacher() TeacherRepository

	// School structure
	Class() ClassRepository
	Student() StudentRepository
	Subject() SubjectRepository

	// Records
	Attendance() AttendanceRepository
	Grade() GradeRepository

	// Audit trail
	Audit() AuditRepository

	// Dashboard counters
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
