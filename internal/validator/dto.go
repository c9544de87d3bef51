package validator

import (
	"github.com/SAP-F-2025/academic-records-service/internal/models"
)

// ===== ATTENDANCE =====

type MarkAttendanceRequest struct {
	StudentID uint                    `json:"student_id" validate:"required"`
	ClassID   uint                    `json:"class_id" validate:"required"`
	Date      string                  `json:"date" validate:"required,calendar_date"`
	Status    models.AttendanceStatus `json:"status" validate:"required,attendance_status"`
}

type AttendanceEntry struct {
	StudentID uint                    `json:"student_id"`
	Status    models.AttendanceStatus `json:"status"`
}

type MarkBatchRequest struct {
	ClassID uint              `json:"class_id" validate:"required"`
	Date    string            `json:"date" validate:"required,calendar_date"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1"`
}

// ===== GRADES =====

type AddGradeRequest struct {
	StudentID uint        `json:"student_id" validate:"required"`
	SubjectID uint        `json:"subject_id" validate:"required"`
	ClassID   uint        `json:"class_id" validate:"required"`
	TeacherID *uint       `json:"teacher_id"`
	Term      models.Term `json:"term" validate:"required,grade_term"`
	Score     *float64    `json:"score" validate:"required,score_range"`
	Remarks   *string     `json:"remarks" validate:"omitempty,max=255"`
}

type UpdateGradeRequest struct {
	Score *float64     `json:"score" validate:"required,score_range"`
	Term  *models.Term `json:"term" validate:"omitempty,grade_term"`
}

// ===== AUTH =====

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=128"`
}
