package repositories

import (
	"time"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type GradeFilters struct {
	StudentID *uint        `json:"student_id"`
	SubjectID *uint        `json:"subject_id"`
	ClassID   *uint        `json:"class_id"`
	ClassIDs  []uint       `json:"class_ids"` // restricts to grades of these classes when non-nil
	Term      *models.Term `json:"term"`
	Limit     int          `json:"limit"`
	Offset    int          `json:"offset"`
}

type AttendanceFilters struct {
	StudentID *uint      `json:"student_id"`
	ClassID   *uint      `json:"class_id"`
	ClassIDs  []uint     `json:"class_ids"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// ===== SHARED AGGREGATE ROWS =====

// ScoreRow is the minimal projection of a grade used for aggregation
type ScoreRow struct {
	ID        uint    `json:"id"`
	StudentID uint    `json:"student_id"`
	SubjectID uint    `json:"subject_id"`
	ClassID   *uint   `json:"class_id"`
	Score     float64 `json:"score"`
}

type StatusCount struct {
	Status models.AttendanceStatus `json:"status"`
	Count  int64                   `json:"count"`
}
