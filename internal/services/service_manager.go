package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/cache"
	"github.com/SAP-F-2025/academic-records-service/internal/events"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	LogLevel slog.Level

	// Service-specific configurations
	Attendance ServiceConfig
	Grade      ServiceConfig
	Analytics  ServiceConfig
	Report     ServiceConfig

	// Global settings
	DefaultTimeout time.Duration
	BcryptCost     int
}

type ServiceConfig struct {
	Enabled         bool
	CacheEnabled    bool
	CacheTTL        time.Duration
	AuditingEnabled bool
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	cache     *cache.CacheManager
	config    ServiceManagerConfig

	// Service instances
	gate              AccessControlGate
	attendanceService AttendanceService
	gradeService      GradeService
	analyticsService  AnalyticsService
	authService       AuthService
	reportService     ReportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, cacheManager *cache.CacheManager, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cache:     cacheManager,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, cacheManager *cache.CacheManager) ServiceManager {
	return NewServiceManager(db, repo, logger, validator, publisher, cacheManager, DefaultServiceManagerConfig(cacheManager))
}

// DefaultServiceManagerConfig enables every service. Analytics caching
// follows the cache manager's TTL.
func DefaultServiceManagerConfig(cacheManager *cache.CacheManager) ServiceManagerConfig {
	ttl := cache.AnalyticsCacheConfig.TTL
	if cacheManager != nil && cacheManager.TTL > 0 {
		ttl = cacheManager.TTL
	}

	return ServiceManagerConfig{
		LogLevel: slog.LevelInfo,

		Attendance: ServiceConfig{
			Enabled:         true,
			AuditingEnabled: true,
		},
		Grade: ServiceConfig{
			Enabled:         true,
			AuditingEnabled: true,
		},
		Analytics: ServiceConfig{
			Enabled:      true,
			CacheEnabled: cacheManager != nil,
			CacheTTL:     ttl,
		},
		Report: ServiceConfig{
			Enabled: true,
		},

		DefaultTimeout: 30 * time.Second,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.config.Validate(); err != nil {
		return err
	}

	sm.initializeServices()

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	sm.gate = NewAccessControlGate()

	var publisher events.EventPublisher
	if sm.config.Attendance.AuditingEnabled || sm.config.Grade.AuditingEnabled {
		publisher = sm.publisher
	}

	// Analytics reads the ledger, so attendance is always built
	sm.attendanceService = NewAttendanceService(sm.repo, sm.db, sm.logger, sm.validator, sm.gate, publisher)
	sm.logger.Info("Attendance service initialized")

	analyticsCache := sm.cache
	if !sm.config.Analytics.CacheEnabled {
		analyticsCache = cache.NewCacheManager(nil, 0)
	}

	if sm.config.Grade.Enabled {
		sm.gradeService = NewGradeService(sm.repo, sm.db, sm.logger, sm.validator, sm.gate, publisher, analyticsCache)
		sm.logger.Info("Grade service initialized")
	}

	if sm.config.Analytics.Enabled {
		sm.analyticsService = NewAnalyticsService(sm.repo, sm.db, sm.logger, sm.gate, sm.attendanceService, analyticsCache)
		sm.logger.Info("Analytics service initialized")
	}

	sm.authService = NewAuthService(sm.repo, sm.db, sm.logger, BcryptVerifier{Cost: sm.config.BcryptCost})
	sm.logger.Info("Auth service initialized")

	if sm.config.Report.Enabled && sm.gradeService != nil {
		sm.reportService = NewReportService(sm.repo, sm.db, sm.logger, sm.gate, sm.gradeService)
		sm.logger.Info("Report service initialized")
	}
}

// Service getters
func (sm *serviceManager) Gate() AccessControlGate {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.gate
}

func (sm *serviceManager) Attendance() AttendanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Attendance.Enabled && sm.attendanceService != nil {
		return sm.attendanceService
	}

	panic("attendance service not enabled or not initialized")
}

func (sm *serviceManager) Grade() GradeService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Grade.Enabled && sm.gradeService != nil {
		return sm.gradeService
	}

	panic("grade service not enabled or not initialized")
}

func (sm *serviceManager) Analytics() AnalyticsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Analytics.Enabled && sm.analyticsService != nil {
		return sm.analyticsService
	}

	panic("analytics service not enabled or not initialized")
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.authService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Report.Enabled && sm.reportService != nil {
		return sm.reportService
	}

	panic("report service not enabled or not initialized")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	// The cache is optional, a failing Redis only degrades analytics
	if sm.cache != nil {
		if err := sm.cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
			sm.logger.Warn("Cache health check failed", "error", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// ===== UTILITY METHODS =====

// GetConfig returns the service manager configuration
func (sm *serviceManager) GetConfig() ServiceManagerConfig {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.config
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}

// ===== CONFIGURATION VALIDATION =====

// Validate validates the service manager configuration
func (config *ServiceManagerConfig) Validate() error {
	var problems []string

	if config.DefaultTimeout <= 0 {
		problems = append(problems, "default timeout must be positive")
	}
	if config.BcryptCost < 0 || config.BcryptCost > 31 {
		problems = append(problems, "bcrypt cost out of range")
	}

	for name, sc := range map[string]ServiceConfig{
		"attendance": config.Attendance,
		"grade":      config.Grade,
		"analytics":  config.Analytics,
		"report":     config.Report,
	} {
		if sc.CacheTTL < 0 {
			problems = append(problems, fmt.Sprintf("%s: cache TTL cannot be negative", name))
		}
	}

	if config.Report.Enabled && !config.Grade.Enabled {
		problems = append(problems, "report: requires the grade service")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %v", problems)
	}

	return nil
}
