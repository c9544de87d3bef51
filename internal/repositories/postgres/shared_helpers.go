package postgres

import (
	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

// applyPagination applies limit and offset when set
func applyPagination(db *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}
	return db
}

// applyGradeFilters narrows a query on the grades table
func applyGradeFilters(db *gorm.DB, filters repositories.GradeFilters) *gorm.DB {
	if filters.StudentID != nil {
		db = db.Where("grades.student_id = ?", *filters.StudentID)
	}
	if filters.SubjectID != nil {
		db = db.Where("grades.subject_id = ?", *filters.SubjectID)
	}
	if filters.ClassID != nil {
		db = db.Where("grades.class_id = ?", *filters.ClassID)
	}
	if filters.ClassIDs != nil {
		if len(filters.ClassIDs) == 0 {
			return db.Where("1 = 0")
		}
		db = db.Where("grades.class_id IN ?", filters.ClassIDs)
	}
	if filters.Term != nil {
		db = db.Where("grades.term = ?", *filters.Term)
	}
	return db
}

// applyAttendanceFilters narrows a query on the attendance table
func applyAttendanceFilters(db *gorm.DB, filters repositories.AttendanceFilters) *gorm.DB {
	if filters.StudentID != nil {
		db = db.Where("attendance.student_id = ?", *filters.StudentID)
	}
	if filters.ClassID != nil {
		db = db.Where("attendance.class_id = ?", *filters.ClassID)
	}
	if filters.ClassIDs != nil {
		if len(filters.ClassIDs) == 0 {
			return db.Where("1 = 0")
		}
		db = db.Where("attendance.class_id IN ?", filters.ClassIDs)
	}
	if filters.DateFrom != nil {
		db = db.Where("attendance.date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		db = db.Where("attendance.date <= ?", *filters.DateTo)
	}
	return db
}
