package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	service services.ReportService
}

func NewReportHandler(service services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ExportGrades streams the caller's visible grades as a workbook
// @Router /reports/grades.xlsx [get]
func (h *ReportHandler) ExportGrades(c *gin.Context) {
	var (
		filters repositories.GradeFilters
		ok      bool
	)
	if filters.ClassID, ok = h.parseUintQuery(c, "class_id"); !ok {
		return
	}
	if filters.SubjectID, ok = h.parseUintQuery(c, "subject_id"); !ok {
		return
	}
	if filters.StudentID, ok = h.parseUintQuery(c, "student_id"); !ok {
		return
	}

	h.LogRequest(c, "Exporting grades")

	data, err := h.service.ExportGrades(c.Request.Context(), GetSessionFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, "grades.xlsx", data)
}

// @Router /reports/classes/{class_id}/attendance.xlsx [get]
func (h *ReportHandler) ExportClassAttendance(c *gin.Context) {
	classID, ok := h.parseIDParam(c, "class_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting class attendance", "class_id", classID)

	data, err := h.service.ExportClassAttendance(c.Request.Context(), GetSessionFromContext(c), classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, fmt.Sprintf("class-%d-attendance.xlsx", classID), data)
}

func (h *ReportHandler) sendWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
