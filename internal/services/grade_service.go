package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/cache"
	"github.com/SAP-F-2025/academic-records-service/internal/events"
	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

// ===== SCORE BANDING =====

type gradeBand struct {
	min     float64
	letter  models.GradeLetter
	remarks string
}

// Inclusive lower bounds, checked top-down
var gradeBands = []gradeBand{
	{min: 90, letter: models.LetterA, remarks: "Excellent"},
	{min: 80, letter: models.LetterB, remarks: "Good"},
	{min: 70, letter: models.LetterC, remarks: "Average"},
	{min: 60, letter: models.LetterD, remarks: "Needs Improvement"},
	{min: 0, letter: models.LetterF, remarks: "Fail"},
}

// Classify maps a score in [0, 100] to its letter and remarks. Scores
// outside the range are rejected, never clamped.
func Classify(score float64) (models.GradeLetter, string, error) {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return "", "", NewValidationError("score", "must be between 0 and 100", score)
	}
	for _, band := range gradeBands {
		if score >= band.min {
			return band.letter, band.remarks, nil
		}
	}
	return models.LetterF, "Fail", nil
}

// ===== SERVICE =====

type gradeService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	gate      AccessControlGate
	owners    ownershipResolver
	activity  activityRecorder
	cache     *cache.CacheManager
}

func NewGradeService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, gate AccessControlGate, publisher events.EventPublisher, cacheManager *cache.CacheManager) GradeService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil, 0)
	}
	return &gradeService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		gate:      gate,
		owners:    ownershipResolver{repo: repo},
		activity:  activityRecorder{repo: repo, publisher: publisher, logger: logger},
		cache:     cacheManager,
	}
}

func (s *gradeService) Classify(score float64) (models.GradeLetter, string, error) {
	return Classify(score)
}

// AddGrade derives letter and remarks from the score. A remarks override
// replaces only the derived remarks.
func (s *gradeService) AddGrade(ctx context.Context, session *models.SessionSnapshot, req *AddGradeRequest) (*models.GradeRecord, error) {
	s.logger.Info("Adding grade",
		"student_id", req.StudentID,
		"subject_id", req.SubjectID,
		"class_id", req.ClassID,
		"term", req.Term)

	if errs := s.validator.GetBusinessValidator().ValidateGradeCreate(req); len(errs) > 0 {
		return nil, fromRequestValidation(errs)
	}

	score := normalizeScore(*req.Score)
	letter, remarks, err := Classify(score)
	if err != nil {
		return nil, err
	}
	if req.Remarks != nil {
		remarks = strings.TrimSpace(*req.Remarks)
	}

	_, target, err := s.owners.class(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "add grade", "class", req.ClassID); err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByID(ctx, nil, req.StudentID)
	if err != nil {
		return nil, lookupError("student", req.StudentID, err)
	}
	if err := requireEnrolled(student, req.ClassID); err != nil {
		return nil, err
	}
	subject, err := s.repo.Subject().GetByID(ctx, nil, req.SubjectID)
	if err != nil {
		return nil, lookupError("subject", req.SubjectID, err)
	}
	if subject.ClassID != req.ClassID {
		return nil, NewValidationError("subject_id", fmt.Sprintf("is not taught in class %d", req.ClassID), req.SubjectID)
	}

	teacherID, err := s.gradingTeacher(ctx, session, req.TeacherID)
	if err != nil {
		return nil, err
	}

	classID := req.ClassID
	grade := &models.GradeRecord{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		ClassID:   &classID,
		TeacherID: teacherID,
		Term:      req.Term,
		Score:     score,
		Letter:    letter,
		Remarks:   remarks,
	}

	if err := s.repo.Grade().Create(ctx, nil, grade); err != nil {
		return nil, storageError("create grade", err)
	}

	s.afterMutation(ctx, session, "grade.create", events.EventGradeCreated, grade)

	s.logger.Info("Grade added", "grade_id", grade.ID, "letter", grade.Letter)
	return grade, nil
}

// gradingTeacher picks the teacher a new grade is attributed to. Teachers
// always grade as themselves, only admins may name another teacher.
func (s *gradeService) gradingTeacher(ctx context.Context, session *models.SessionSnapshot, requested *uint) (*uint, error) {
	if session.Role == models.RoleTeacher {
		if requested != nil && *requested != *session.EntityID {
			return nil, NewPermissionError(session, "teacher", *requested, "add grade as", "teachers grade only as themselves")
		}
		return session.EntityID, nil
	}

	if requested == nil {
		return nil, nil
	}
	if _, err := s.repo.Teacher().GetByID(ctx, nil, *requested); err != nil {
		return nil, lookupError("teacher", *requested, err)
	}
	return requested, nil
}

// UpdateGrade rewrites the score and re-derives letter and remarks
func (s *gradeService) UpdateGrade(ctx context.Context, session *models.SessionSnapshot, gradeID uint, req *UpdateGradeRequest) (*models.GradeRecord, error) {
	s.logger.Info("Updating grade", "grade_id", gradeID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fromRequestValidation(err)
	}

	score := normalizeScore(*req.Score)
	letter, remarks, err := Classify(score)
	if err != nil {
		return nil, err
	}

	grade, err := s.repo.Grade().GetByID(ctx, nil, gradeID)
	if err != nil {
		return nil, lookupError("grade", gradeID, err)
	}

	target, err := s.owners.grade(ctx, grade)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "update grade", "grade", gradeID); err != nil {
		return nil, err
	}

	patch := models.GradePatch{
		Score:   &score,
		Term:    req.Term,
		Letter:  &letter,
		Remarks: &remarks,
	}
	if err := s.repo.Grade().Update(ctx, nil, gradeID, patch); err != nil {
		return nil, lookupError("grade", gradeID, err)
	}

	updated, err := s.repo.Grade().GetByID(ctx, nil, gradeID)
	if err != nil {
		return nil, lookupError("grade", gradeID, err)
	}

	s.afterMutation(ctx, session, "grade.update", events.EventGradeUpdated, updated)

	s.logger.Info("Grade updated", "grade_id", gradeID, "letter", updated.Letter)
	return updated, nil
}

func (s *gradeService) DeleteGrade(ctx context.Context, session *models.SessionSnapshot, gradeID uint) error {
	s.logger.Info("Deleting grade", "grade_id", gradeID)

	grade, err := s.repo.Grade().GetByID(ctx, nil, gradeID)
	if err != nil {
		return lookupError("grade", gradeID, err)
	}

	target, err := s.owners.grade(ctx, grade)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "delete grade", "grade", gradeID); err != nil {
		return err
	}

	if err := s.repo.Grade().Delete(ctx, nil, gradeID); err != nil {
		return lookupError("grade", gradeID, err)
	}

	s.afterMutation(ctx, session, "grade.delete", events.EventGradeDeleted, grade)
	return nil
}

func (s *gradeService) GetByID(ctx context.Context, session *models.SessionSnapshot, gradeID uint) (*models.GradeRecord, error) {
	grade, err := s.repo.Grade().GetByID(ctx, nil, gradeID)
	if err != nil {
		return nil, lookupError("grade", gradeID, err)
	}

	target, err := s.owners.grade(ctx, grade)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, anyRole, target, "view grade", "grade", gradeID); err != nil {
		return nil, err
	}
	return grade, nil
}

// ListAll returns joined grades; teachers are limited to their classes
func (s *gradeService) ListAll(ctx context.Context, session *models.SessionSnapshot, filters repositories.GradeFilters) ([]models.GradeView, error) {
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, nil, "list grades", "grade", 0); err != nil {
		return nil, err
	}

	owned, err := s.owners.ownedClassIDs(ctx, session)
	if err != nil {
		return nil, err
	}
	if owned != nil {
		filters.ClassIDs = owned
	}

	grades, err := s.repo.Grade().List(ctx, nil, filters)
	if err != nil {
		return nil, storageError("list grades", err)
	}
	return grades, nil
}

// afterMutation invalidates cached aggregates, then audits and publishes
func (s *gradeService) afterMutation(ctx context.Context, session *models.SessionSnapshot, action, eventType string, grade *models.GradeRecord) {
	if err := s.cache.InvalidateGradeAggregates(ctx); err != nil {
		s.logger.Error("Failed to invalidate analytics cache", "error", err, "grade_id", grade.ID)
	}

	s.activity.record(ctx, session, action, "grade", grade.ID, eventType, events.GradeChangedData{
		GradeID:   grade.ID,
		StudentID: grade.StudentID,
		SubjectID: grade.SubjectID,
		ClassID:   grade.ClassID,
		Score:     grade.Score,
		Letter:    string(grade.Letter),
		ChangedBy: actorID(session),
	})
}
