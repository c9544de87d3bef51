package models

import (
	"time"
)

type Term string

const (
	TermOne   Term = "Term 1"
	TermTwo   Term = "Term 2"
	TermThree Term = "Term 3"
	TermFinal Term = "Final"
)

func (t Term) Valid() bool {
	switch t {
	case TermOne, TermTwo, TermThree, TermFinal:
		return true
	default:
		return false
	}
}

type GradeLetter string

const (
	LetterA GradeLetter = "A"
	LetterB GradeLetter = "B"
	LetterC GradeLetter = "C"
	LetterD GradeLetter = "D"
	LetterF GradeLetter = "F"
)

// GradeLetters lists letters in reporting order
var GradeLetters = []GradeLetter{LetterA, LetterB, LetterC, LetterD, LetterF}

// GradeRecord stores a score together with its derived letter and remarks.
// Letter and Remarks are only ever written from the score.
type GradeRecord struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	StudentID uint        `json:"student_id" gorm:"not null;index"`
	SubjectID uint        `json:"subject_id" gorm:"not null;index"`
	ClassID   *uint       `json:"class_id" gorm:"index"`
	TeacherID *uint       `json:"teacher_id" gorm:"index"`
	Term      Term        `json:"term" gorm:"not null;size:10"`
	Score     float64     `json:"score" gorm:"type:decimal(5,2);not null"`
	Letter    GradeLetter `json:"grade_letter" gorm:"column:grade_letter;size:2"`
	Remarks   string      `json:"remarks" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *Student `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Subject *Subject `json:"-" gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
	Class   *Class   `json:"-" gorm:"foreignKey:ClassID;constraint:OnDelete:SET NULL"`
	Teacher *Teacher `json:"-" gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL"`
}

func (GradeRecord) TableName() string {
	return "grades"
}

// GradePatch carries the optional fields of a partial grade update.
// Only non-nil fields are written.
type GradePatch struct {
	Score   *float64
	Term    *Term
	Letter  *GradeLetter
	Remarks *string
}

// IsEmpty reports whether the patch would change nothing
func (p GradePatch) IsEmpty() bool {
	return p.Score == nil && p.Term == nil && p.Letter == nil && p.Remarks == nil
}

// GradeView is a grade joined with student, subject and class names
type GradeView struct {
	ID          uint        `json:"id"`
	StudentID   uint        `json:"student_id"`
	StudentName string      `json:"student_name"`
	SubjectID   uint        `json:"subject_id"`
	SubjectName string      `json:"subject_name"`
	ClassID     *uint       `json:"class_id"`
	ClassName   *string     `json:"class_name"`
	TeacherID   *uint       `json:"teacher_id"`
	Term        Term        `json:"term"`
	Score       float64     `json:"score"`
	Letter      GradeLetter `json:"grade_letter"`
	Remarks     string      `json:"remarks"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
