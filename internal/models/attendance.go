package models

import (
	"time"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

// Valid reports whether the status is one of the four recognised values
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// DateLayout is the calendar-day format used for attendance dates on the wire
const DateLayout = "2006-01-02"

// AttendanceRecord holds at most one row per (student, date); a later mark
// replaces status and class of the existing row.
type AttendanceRecord struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	StudentID uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_student_date,priority:1"`
	ClassID   uint             `json:"class_id" gorm:"not null;index"`
	Date      time.Time        `json:"date" gorm:"type:date;not null;uniqueIndex:idx_attendance_student_date,priority:2"`
	Status    AttendanceStatus `json:"status" gorm:"not null;size:10"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *Student `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Class   *Class   `json:"-" gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE"`
}

func (AttendanceRecord) TableName() string {
	return "attendance"
}

// AttendanceView is an attendance record joined with display names
type AttendanceView struct {
	ID          uint             `json:"id"`
	StudentID   uint             `json:"student_id"`
	StudentName string           `json:"student_name"`
	ClassID     uint             `json:"class_id"`
	ClassName   string           `json:"class_name"`
	Date        time.Time        `json:"date"`
	Status      AttendanceStatus `json:"status"`
}

type AttendanceSummary struct {
	StudentID    uint  `json:"student_id"`
	TotalClasses int64 `json:"total_classes"`
	Present      int64 `json:"present"`
	Absent       int64 `json:"absent"`
	Late         int64 `json:"late"`
	Excused      int64 `json:"excused"`
}

// BatchFailure describes one rejected entry of a batch mark
type BatchFailure struct {
	StudentID uint   `json:"student_id"`
	Reason    string `json:"reason"`
}

type BatchResult struct {
	Succeeded []uint         `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}
