package models

// Summary views produced by the analytics aggregator. Averages are nil when
// there is nothing to aggregate and NoData is set alongside.

type ClassAverage struct {
	ClassID    uint     `json:"class_id"`
	ClassName  string   `json:"class_name,omitempty"`
	Average    *float64 `json:"average"`
	GradeCount int64    `json:"grade_count"`
	NoData     bool     `json:"no_data"`
}

type LetterCount struct {
	Letter GradeLetter `json:"letter"`
	Count  int64       `json:"count"`
}

// GradeDistribution always carries all five letters in A..F order
type GradeDistribution struct {
	Scope   string        `json:"scope"`
	Letters []LetterCount `json:"letters"`
	Total   int64         `json:"total"`
}

// Count returns the count for a letter, zero when absent
func (d GradeDistribution) Count(letter GradeLetter) int64 {
	for _, lc := range d.Letters {
		if lc.Letter == letter {
			return lc.Count
		}
	}
	return 0
}

type StudentGPA struct {
	StudentID uint     `json:"student_id"`
	Mean      *float64 `json:"mean"`
	GPA       *float64 `json:"gpa"`
	NoData    bool     `json:"no_data"`
}

type StudentRank struct {
	StudentID uint `json:"student_id"`
	Rank      *int `json:"rank"`
	Of        int  `json:"of"`
}

type SubjectScore struct {
	GradeID     uint        `json:"grade_id"`
	SubjectID   uint        `json:"subject_id"`
	SubjectName string      `json:"subject_name"`
	Term        Term        `json:"term"`
	Score       float64     `json:"score"`
	Letter      GradeLetter `json:"grade_letter"`
	Remarks     string      `json:"remarks"`
}

type TeacherDashboard struct {
	TeacherID        uint           `json:"teacher_id"`
	TotalClasses     int            `json:"total_classes"`
	TotalSubjects    int64          `json:"total_subjects"`
	TotalStudents    int64          `json:"total_students"`
	OverallAverage   *float64       `json:"overall_average"`
	PerClassAverages []ClassAverage `json:"per_class_averages"`
}

type StudentDashboard struct {
	StudentID         uint              `json:"student_id"`
	PerSubjectScores  []SubjectScore    `json:"per_subject_scores"`
	GPA               *float64          `json:"gpa"`
	Rank              *int              `json:"rank"`
	AttendanceSummary AttendanceSummary `json:"attendance_summary"`
}

type AdminOverview struct {
	TotalStudents int64             `json:"total_students"`
	TotalTeachers int64             `json:"total_teachers"`
	TotalClasses  int64             `json:"total_classes"`
	TotalSubjects int64             `json:"total_subjects"`
	ClassAverages []ClassAverage    `json:"class_averages"`
	Distribution  GradeDistribution `json:"distribution"`
}
