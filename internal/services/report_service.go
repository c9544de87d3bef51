package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

const (
	gradesSheet     = "Grades"
	attendanceSheet = "Attendance"
	summarySheet    = "Summary"
)

var (
	gradeColumns      = []interface{}{"Student", "Subject", "Class", "Term", "Score", "Letter", "Remarks"}
	attendanceColumns = []interface{}{"Date", "Student", "Status"}
	summaryColumns    = []interface{}{"Student", "Total", "Present", "Absent", "Late", "Excused"}
)

type reportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	gate   AccessControlGate
	owners ownershipResolver
	grades GradeService
}

// NewReportService builds XLSX exports. Grade exports reuse the grade book
// listing so they see exactly what the caller could list.
func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, gate AccessControlGate, grades GradeService) ReportService {
	return &reportService{
		repo:   repo,
		db:     db,
		logger: logger,
		gate:   gate,
		owners: ownershipResolver{repo: repo},
		grades: grades,
	}
}

func (s *reportService) ExportGrades(ctx context.Context, session *models.SessionSnapshot, filters repositories.GradeFilters) ([]byte, error) {
	s.logger.Info("Exporting grades", "user_id", actorID(session))

	views, err := s.grades.ListAll(ctx, session, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", gradesSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(views))
	for _, v := range views {
		className := ""
		if v.ClassName != nil {
			className = *v.ClassName
		}
		rows = append(rows, []interface{}{v.StudentName, v.SubjectName, className, string(v.Term), v.Score, string(v.Letter), v.Remarks})
	}

	if err := writeTable(f, gradesSheet, gradeColumns, rows); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// ExportClassAttendance writes the class ledger and a per-student summary
func (s *reportService) ExportClassAttendance(ctx context.Context, session *models.SessionSnapshot, classID uint) ([]byte, error) {
	s.logger.Info("Exporting class attendance", "class_id", classID, "user_id", actorID(session))

	_, target, err := s.owners.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "export attendance", "class", classID); err != nil {
		return nil, err
	}

	views, err := s.repo.Attendance().List(ctx, nil, repositories.AttendanceFilters{ClassID: &classID})
	if err != nil {
		return nil, storageError("list attendance", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	ledger := make([][]interface{}, 0, len(views))
	for _, v := range views {
		ledger = append(ledger, []interface{}{v.Date.Format(models.DateLayout), v.StudentName, string(v.Status)})
	}
	if err := writeTable(f, attendanceSheet, attendanceColumns, ledger); err != nil {
		return nil, err
	}
	if err := writeTable(f, summarySheet, summaryColumns, summaryRows(views)); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

func summaryRows(views []models.AttendanceView) [][]interface{} {
	type tally struct {
		name string
		models.AttendanceSummary
	}

	byStudent := make(map[uint]*tally)
	for _, v := range views {
		t, ok := byStudent[v.StudentID]
		if !ok {
			t = &tally{name: v.StudentName}
			t.StudentID = v.StudentID
			byStudent[v.StudentID] = t
		}
		t.TotalClasses++
		switch v.Status {
		case models.AttendancePresent:
			t.Present++
		case models.AttendanceAbsent:
			t.Absent++
		case models.AttendanceLate:
			t.Late++
		case models.AttendanceExcused:
			t.Excused++
		}
	}

	tallies := make([]*tally, 0, len(byStudent))
	for _, t := range byStudent {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].name != tallies[j].name {
			return tallies[i].name < tallies[j].name
		}
		return tallies[i].StudentID < tallies[j].StudentID
	})

	rows := make([][]interface{}, 0, len(tallies))
	for _, t := range tallies {
		rows = append(rows, []interface{}{t.name, t.TotalClasses, t.Present, t.Absent, t.Late, t.Excused})
	}
	return rows
}

// writeTable writes a bold header row followed by the data rows
func writeTable(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
