package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

type HandlerManager struct {
	serviceManager    services.ServiceManager
	authenticator     SessionAuthenticator
	logger            utils.Logger
	authHandler       *AuthHandler
	attendanceHandler *AttendanceHandler
	gradeHandler      *GradeHandler
	analyticsHandler  *AnalyticsHandler
	reportHandler     *ReportHandler
}

// NewHandlerManager wires handlers to services. issuer may be nil when an
// external identity provider issues tokens, which disables /auth/login.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	authenticator SessionAuthenticator,
	issuer TokenIssuer,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	hm := &HandlerManager{
		serviceManager:    serviceManager,
		authenticator:     authenticator,
		logger:            logger,
		attendanceHandler: NewAttendanceHandler(serviceManager.Attendance(), logger),
		gradeHandler:      NewGradeHandler(serviceManager.Grade(), logger),
		analyticsHandler:  NewAnalyticsHandler(serviceManager.Analytics(), logger),
		reportHandler:     NewReportHandler(serviceManager.Report(), logger),
	}
	if issuer != nil {
		hm.authHandler = NewAuthHandler(serviceManager.Auth(), issuer, validator, logger)
	}
	return hm
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	v1 := router.Group("/api/v1")
	requireAuth := AuthMiddleware(hm.authenticator, hm.logger)
	staff := RequireRoleMiddleware(models.RoleAdmin, models.RoleTeacher)

	auth := v1.Group("/auth")
	{
		if hm.authHandler != nil {
			auth.POST("/login", hm.authHandler.Login)
			auth.GET("/me", requireAuth, hm.authHandler.Me)
		}
	}

	attendance := v1.Group("/attendance", requireAuth)
	{
		attendance.POST("", staff, hm.attendanceHandler.MarkAttendance)
		attendance.POST("/batch", staff, hm.attendanceHandler.MarkBatch)
		attendance.GET("", staff, hm.attendanceHandler.ListAttendance)
		attendance.GET("/classes/:class_id", staff, hm.attendanceHandler.GetByClass)
		attendance.GET("/classes/:class_id/students", staff, hm.attendanceHandler.GetStudentsInClass)
		attendance.GET("/students/:student_id/summary", hm.attendanceHandler.Summarize)
	}

	grades := v1.Group("/grades", requireAuth)
	{
		grades.GET("/classify", hm.gradeHandler.Classify)
		grades.POST("", staff, hm.gradeHandler.AddGrade)
		grades.GET("", staff, hm.gradeHandler.ListGrades)
		grades.GET("/:id", hm.gradeHandler.GetGrade)
		grades.PUT("/:id", staff, hm.gradeHandler.UpdateGrade)
		grades.DELETE("/:id", staff, hm.gradeHandler.DeleteGrade)
	}

	analytics := v1.Group("/analytics", requireAuth)
	{
		analytics.GET("/classes/:class_id/average", staff, hm.analyticsHandler.ClassAverage)
		analytics.GET("/distribution", staff, hm.analyticsHandler.GradeDistribution)
		analytics.GET("/students/:student_id/gpa", hm.analyticsHandler.StudentGPA)
		analytics.GET("/students/:student_id/rank", hm.analyticsHandler.StudentRank)
		analytics.GET("/students/:student_id/dashboard", hm.analyticsHandler.StudentDashboard)
		analytics.GET("/teachers/:teacher_id/dashboard", staff, hm.analyticsHandler.TeacherDashboard)
		analytics.GET("/overview", RequireRoleMiddleware(models.RoleAdmin), hm.analyticsHandler.AdminOverview)
	}

	reports := v1.Group("/reports", requireAuth)
	{
		reports.GET("/grades.xlsx", staff, hm.reportHandler.ExportGrades)
		reports.GET("/classes/:class_id/attendance.xlsx", staff, hm.reportHandler.ExportClassAttendance)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"service":   "academic-records-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		utils.FromContext(c, hm.logger).Error("Health check failed", "error", err)
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
	}
	c.JSON(status, body)
}
