package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/events"
	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

type attendanceService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	gate      AccessControlGate
	owners    ownershipResolver
	activity  activityRecorder
}

func NewAttendanceService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, gate AccessControlGate, publisher events.EventPublisher) AttendanceService {
	return &attendanceService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		gate:      gate,
		owners:    ownershipResolver{repo: repo},
		activity:  activityRecorder{repo: repo, publisher: publisher, logger: logger},
	}
}

// MarkAttendance upserts the record for (student, date)
func (s *attendanceService) MarkAttendance(ctx context.Context, session *models.SessionSnapshot, req *MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	s.logger.Info("Marking attendance",
		"student_id", req.StudentID,
		"class_id", req.ClassID,
		"date", req.Date,
		"status", req.Status)

	if err := s.validator.Validate(req); err != nil {
		return nil, fromRequestValidation(err)
	}

	date, err := validator.ParseDate(req.Date)
	if err != nil {
		return nil, NewValidationError("date", "must be a valid date in YYYY-MM-DD format", req.Date)
	}

	_, target, err := s.owners.class(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "mark attendance", "class", req.ClassID); err != nil {
		return nil, err
	}

	record, err := s.mark(ctx, session, req.StudentID, req.ClassID, date, req.Status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attendance marked", "record_id", record.ID, "student_id", record.StudentID)
	return record, nil
}

// MarkBatch applies each entry independently. A failing entry is reported
// and never rolls back the others.
func (s *attendanceService) MarkBatch(ctx context.Context, session *models.SessionSnapshot, req *MarkBatchRequest) (*models.BatchResult, error) {
	s.logger.Info("Marking attendance batch",
		"class_id", req.ClassID,
		"date", req.Date,
		"entries", len(req.Entries))

	if errs := s.validator.GetBusinessValidator().ValidateAttendanceBatch(req); len(errs) > 0 {
		return nil, fromRequestValidation(errs)
	}

	date, err := validator.ParseDate(req.Date)
	if err != nil {
		return nil, NewValidationError("date", "must be a valid date in YYYY-MM-DD format", req.Date)
	}

	_, target, err := s.owners.class(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "mark attendance", "class", req.ClassID); err != nil {
		return nil, err
	}

	result := &models.BatchResult{
		Succeeded: make([]uint, 0, len(req.Entries)),
		Failed:    make([]models.BatchFailure, 0),
	}

	for _, entry := range req.Entries {
		if !entry.Status.Valid() {
			result.Failed = append(result.Failed, models.BatchFailure{
				StudentID: entry.StudentID,
				Reason:    fmt.Sprintf("invalid status %q", entry.Status),
			})
			continue
		}

		if _, err := s.mark(ctx, session, entry.StudentID, req.ClassID, date, entry.Status); err != nil {
			s.logger.Warn("Batch entry failed", "student_id", entry.StudentID, "error", err)
			result.Failed = append(result.Failed, models.BatchFailure{
				StudentID: entry.StudentID,
				Reason:    err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, entry.StudentID)
	}

	s.logger.Info("Attendance batch processed",
		"class_id", req.ClassID,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed))

	return result, nil
}

func (s *attendanceService) mark(ctx context.Context, session *models.SessionSnapshot, studentID, classID uint, date time.Time, status models.AttendanceStatus) (*models.AttendanceRecord, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, lookupError("student", studentID, err)
	}
	if err := requireEnrolled(student, classID); err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		StudentID: studentID,
		ClassID:   classID,
		Date:      date,
		Status:    status,
	}
	if err := s.repo.Attendance().Upsert(ctx, nil, record); err != nil {
		return nil, storageError("upsert attendance", err)
	}

	s.activity.record(ctx, session, "attendance.mark", "attendance", record.ID, events.EventAttendanceMarked, events.AttendanceMarkedData{
		RecordID:  record.ID,
		StudentID: studentID,
		ClassID:   classID,
		Date:      date.Format(models.DateLayout),
		Status:    string(status),
		MarkedBy:  actorID(session),
	})

	return record, nil
}

// GetByClass returns the class ledger newest date first
func (s *attendanceService) GetByClass(ctx context.Context, session *models.SessionSnapshot, classID uint) ([]*models.AttendanceRecord, error) {
	_, target, err := s.owners.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "view attendance", "class", classID); err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance().ListByClass(ctx, nil, classID)
	if err != nil {
		return nil, storageError("list attendance", err)
	}
	return records, nil
}

func (s *attendanceService) GetStudentsInClass(ctx context.Context, session *models.SessionSnapshot, classID uint) ([]*models.Student, error) {
	_, target, err := s.owners.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "view students", "class", classID); err != nil {
		return nil, err
	}

	students, err := s.repo.Student().ListActiveByClass(ctx, nil, classID)
	if err != nil {
		return nil, storageError("list students", err)
	}
	return students, nil
}

// Summarize counts every record of the student once. TotalClasses is the
// number of records, there is no schedule to compare against.
func (s *attendanceService) Summarize(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.AttendanceSummary, error) {
	_, target, err := s.owners.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, anyRole, target, "view attendance", "student", studentID); err != nil {
		return nil, err
	}

	counts, err := s.repo.Attendance().CountByStatus(ctx, nil, studentID)
	if err != nil {
		return nil, storageError("count attendance", err)
	}

	summary := &models.AttendanceSummary{StudentID: studentID}
	for _, c := range counts {
		summary.TotalClasses += c.Count
		switch c.Status {
		case models.AttendancePresent:
			summary.Present += c.Count
		case models.AttendanceAbsent:
			summary.Absent += c.Count
		case models.AttendanceLate:
			summary.Late += c.Count
		case models.AttendanceExcused:
			summary.Excused += c.Count
		}
	}
	return summary, nil
}

// ListAll returns joined records; teachers only see their own classes
func (s *attendanceService) ListAll(ctx context.Context, session *models.SessionSnapshot, filters repositories.AttendanceFilters) ([]models.AttendanceView, error) {
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, nil, "list attendance", "attendance", 0); err != nil {
		return nil, err
	}

	owned, err := s.owners.ownedClassIDs(ctx, session)
	if err != nil {
		return nil, err
	}
	if owned != nil {
		filters.ClassIDs = owned
	}

	views, err := s.repo.Attendance().List(ctx, nil, filters)
	if err != nil {
		return nil, storageError("list attendance", err)
	}
	return views, nil
}
