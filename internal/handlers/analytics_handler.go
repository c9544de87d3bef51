package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	service services.AnalyticsService
}

func NewAnalyticsHandler(service services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// @Router /analytics/classes/{class_id}/average [get]
func (h *AnalyticsHandler) ClassAverage(c *gin.Context) {
	classID, ok := h.parseIDParam(c, "class_id")
	if !ok {
		return
	}

	avg, err := h.service.ClassAverage(c.Request.Context(), GetSessionFromContext(c), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, avg)
}

// GradeDistribution counts grades per letter. Without class_id or
// subject_id it covers every grade.
// @Router /analytics/distribution [get]
func (h *AnalyticsHandler) GradeDistribution(c *gin.Context) {
	var (
		scope services.DistributionScope
		ok    bool
	)
	if scope.ClassID, ok = h.parseUintQuery(c, "class_id"); !ok {
		return
	}
	if scope.SubjectID, ok = h.parseUintQuery(c, "subject_id"); !ok {
		return
	}

	dist, err := h.service.GradeDistribution(c.Request.Context(), GetSessionFromContext(c), scope)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dist)
}

// @Router /analytics/students/{student_id}/gpa [get]
func (h *AnalyticsHandler) StudentGPA(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "student_id")
	if !ok {
		return
	}

	gpa, err := h.service.StudentGPA(c.Request.Context(), GetSessionFromContext(c), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gpa)
}

// @Router /analytics/students/{student_id}/rank [get]
func (h *AnalyticsHandler) StudentRank(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "student_id")
	if !ok {
		return
	}

	rank, err := h.service.StudentRank(c.Request.Context(), GetSessionFromContext(c), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rank)
}

// @Router /analytics/students/{student_id}/dashboard [get]
func (h *AnalyticsHandler) StudentDashboard(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "student_id")
	if !ok {
		return
	}

	dashboard, err := h.service.StudentDashboard(c.Request.Context(), GetSessionFromContext(c), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// @Router /analytics/teachers/{teacher_id}/dashboard [get]
func (h *AnalyticsHandler) TeacherDashboard(c *gin.Context) {
	teacherID, ok := h.parseIDParam(c, "teacher_id")
	if !ok {
		return
	}

	dashboard, err := h.service.TeacherDashboard(c.Request.Context(), GetSessionFromContext(c), teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// @Router /analytics/overview [get]
func (h *AnalyticsHandler) AdminOverview(c *gin.Context) {
	h.LogRequest(c, "Getting admin overview")

	overview, err := h.service.AdminOverview(c.Request.Context(), GetSessionFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
