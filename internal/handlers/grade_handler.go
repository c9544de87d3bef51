package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
)

type GradeHandler struct {
	BaseHandler
	service services.GradeService
}

func NewGradeHandler(service services.GradeService, logger utils.Logger) *GradeHandler {
	return &GradeHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

type ClassifyResponse struct {
	Score   float64            `json:"score"`
	Grade   models.GradeLetter `json:"grade"`
	Remarks string             `json:"remarks"`
}

// AddGrade records a score and derives its letter grade
// @Router /grades [post]
func (h *GradeHandler) AddGrade(c *gin.Context) {
	var req services.AddGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Adding grade", "student_id", req.StudentID, "subject_id", req.SubjectID)

	grade, err := h.service.AddGrade(c.Request.Context(), GetSessionFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, grade)
}

// ListGrades lists grades visible to the caller
// @Param student_id query int false "Student"
// @Param subject_id query int false "Subject"
// @Param class_id query int false "Class"
// @Param term query string false "Term"
// @Router /grades [get]
func (h *GradeHandler) ListGrades(c *gin.Context) {
	filters := repositories.GradeFilters{
		Limit:  h.parseIntQuery(c, "limit", 0),
		Offset: h.parseIntQuery(c, "offset", 0),
	}
	var ok bool
	if filters.StudentID, ok = h.parseUintQuery(c, "student_id"); !ok {
		return
	}
	if filters.SubjectID, ok = h.parseUintQuery(c, "subject_id"); !ok {
		return
	}
	if filters.ClassID, ok = h.parseUintQuery(c, "class_id"); !ok {
		return
	}
	if raw := c.Query("term"); raw != "" {
		term := models.Term(raw)
		if !term.Valid() {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid term", raw)
			return
		}
		filters.Term = &term
	}

	views, err := h.service.ListAll(c.Request.Context(), GetSessionFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Router /grades/{id} [get]
func (h *GradeHandler) GetGrade(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	grade, err := h.service.GetByID(c.Request.Context(), GetSessionFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grade)
}

// UpdateGrade changes the score and re-derives grade and remarks
// @Router /grades/{id} [put]
func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Updating grade", "grade_id", id)

	grade, err := h.service.UpdateGrade(c.Request.Context(), GetSessionFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grade)
}

// @Router /grades/{id} [delete]
func (h *GradeHandler) DeleteGrade(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting grade", "grade_id", id)

	if err := h.service.DeleteGrade(c.Request.Context(), GetSessionFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Grade deleted successfully"})
}

// Classify maps a score to its letter grade without storing anything
// @Param score query number true "Score 0-100"
// @Router /grades/classify [get]
func (h *GradeHandler) Classify(c *gin.Context) {
	raw := c.Query("score")
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid score", raw)
		return
	}

	letter, remarks, err := h.service.Classify(score)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ClassifyResponse{Score: score, Grade: letter, Remarks: remarks})
}
