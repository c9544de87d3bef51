package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

type AttendanceHandler struct {
	BaseHandler
	service services.AttendanceService
}

func NewAttendanceHandler(service services.AttendanceService, logger utils.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// MarkAttendance records or overwrites one student's status for a day
// @Router /attendance [post]
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req services.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Marking attendance", "student_id", req.StudentID, "class_id", req.ClassID)

	record, err := h.service.MarkAttendance(c.Request.Context(), GetSessionFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// MarkBatch records a whole class roll for one day
// @Router /attendance/batch [post]
func (h *AttendanceHandler) MarkBatch(c *gin.Context) {
	var req services.MarkBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Marking attendance batch", "class_id", req.ClassID, "entries", len(req.Entries))

	result, err := h.service.MarkBatch(c.Request.Context(), GetSessionFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListAttendance lists records visible to the caller
// @Param student_id query int false "Student"
// @Param class_id query int false "Class"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Router /attendance [get]
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	filters := repositories.AttendanceFilters{
		Limit:  h.parseIntQuery(c, "limit", 0),
		Offset: h.parseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filters.StudentID, ok = h.parseUintQuery(c, "student_id"); !ok {
		return
	}
	if filters.ClassID, ok = h.parseUintQuery(c, "class_id"); !ok {
		return
	}
	if filters.DateFrom, ok = h.parseDateQuery(c, "date_from"); !ok {
		return
	}
	if filters.DateTo, ok = h.parseDateQuery(c, "date_to"); !ok {
		return
	}

	views, err := h.service.ListAll(c.Request.Context(), GetSessionFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Router /attendance/classes/{class_id} [get]
func (h *AttendanceHandler) GetByClass(c *gin.Context) {
	classID, ok := h.parseIDParam(c, "class_id")
	if !ok {
		return
	}

	records, err := h.service.GetByClass(c.Request.Context(), GetSessionFromContext(c), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// @Router /attendance/classes/{class_id}/students [get]
func (h *AttendanceHandler) GetStudentsInClass(c *gin.Context) {
	classID, ok := h.parseIDParam(c, "class_id")
	if !ok {
		return
	}

	students, err := h.service.GetStudentsInClass(c.Request.Context(), GetSessionFromContext(c), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

// Summarize returns per-status counts and the attendance percentage
// @Router /attendance/students/{student_id}/summary [get]
func (h *AttendanceHandler) Summarize(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "student_id")
	if !ok {
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), GetSessionFromContext(c), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *AttendanceHandler) parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	date, err := validator.ParseDate(raw)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid "+name, "expected YYYY-MM-DD")
		return nil, false
	}
	return &date, true
}
