package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/cache"
	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

// String renders the scope as it appears in responses and cache keys
func (s DistributionScope) String() string {
	switch {
	case s.ClassID != nil && s.SubjectID != nil:
		return fmt.Sprintf("class:%d:subject:%d", *s.ClassID, *s.SubjectID)
	case s.ClassID != nil:
		return fmt.Sprintf("class:%d", *s.ClassID)
	case s.SubjectID != nil:
		return fmt.Sprintf("subject:%d", *s.SubjectID)
	default:
		return "all"
	}
}

type analyticsService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	gate   AccessControlGate
	owners ownershipResolver
	ledger AttendanceService
	cache  *cache.CacheManager
}

// NewAnalyticsService composes the aggregator over the repositories and the
// attendance ledger. It never mutates.
func NewAnalyticsService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, gate AccessControlGate, ledger AttendanceService, cacheManager *cache.CacheManager) AnalyticsService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil, 0)
	}
	return &analyticsService{
		repo:   repo,
		db:     db,
		logger: logger,
		gate:   gate,
		owners: ownershipResolver{repo: repo},
		ledger: ledger,
		cache:  cacheManager,
	}
}

func (s *analyticsService) ClassAverage(ctx context.Context, session *models.SessionSnapshot, classID uint) (*models.ClassAverage, error) {
	s.logger.Info("Computing class average", "class_id", classID)

	class, target, err := s.owners.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "view class average", "class", classID); err != nil {
		return nil, err
	}

	var avg models.ClassAverage
	key := fmt.Sprintf("class:%d:average", classID)
	err = s.cache.Analytics.CacheOrExecute(ctx, key, &avg, s.cache.TTL, func() (interface{}, error) {
		rows, err := s.repo.Grade().ListScores(ctx, nil, repositories.GradeFilters{ClassID: &classID})
		if err != nil {
			return nil, storageError("list class scores", err)
		}
		return buildClassAverage(class.ID, class.Name, scoresOf(rows)), nil
	})
	if err != nil {
		return nil, err
	}
	return &avg, nil
}

// GradeDistribution counts letters over the scope. "all" is admin only,
// class and subject scopes are open to the owning teacher.
func (s *analyticsService) GradeDistribution(ctx context.Context, session *models.SessionSnapshot, scope DistributionScope) (*models.GradeDistribution, error) {
	s.logger.Info("Computing grade distribution", "scope", scope.String())

	if err := s.authorizeScope(ctx, session, scope); err != nil {
		return nil, err
	}

	dist, err := s.distribution(ctx, scope)
	if err != nil {
		return nil, err
	}
	return dist, nil
}

func (s *analyticsService) authorizeScope(ctx context.Context, session *models.SessionSnapshot, scope DistributionScope) error {
	var targets []*models.OwnershipTarget
	var resourceID uint

	if scope.ClassID != nil {
		_, target, err := s.owners.class(ctx, *scope.ClassID)
		if err != nil {
			return err
		}
		targets = append(targets, target)
		resourceID = *scope.ClassID
	}
	if scope.SubjectID != nil {
		subject, err := s.repo.Subject().GetByID(ctx, nil, *scope.SubjectID)
		if err != nil {
			return lookupError("subject", *scope.SubjectID, err)
		}
		_, target, err := s.owners.class(ctx, subject.ClassID)
		if err != nil {
			return err
		}
		targets = append(targets, target)
		if resourceID == 0 {
			resourceID = *scope.SubjectID
		}
	}

	if len(targets) == 0 {
		return authorize(ctx, s.gate, s.logger, session, adminOnly, nil, "view distribution", "grades", 0)
	}
	for _, target := range targets {
		if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "view distribution", scope.String(), resourceID); err != nil {
			return err
		}
	}
	return nil
}

func (s *analyticsService) distribution(ctx context.Context, scope DistributionScope) (*models.GradeDistribution, error) {
	var dist models.GradeDistribution
	err := s.cache.Analytics.CacheOrExecute(ctx, "distribution:"+scope.String(), &dist, s.cache.TTL, func() (interface{}, error) {
		rows, err := s.repo.Grade().ListScores(ctx, nil, repositories.GradeFilters{
			ClassID:   scope.ClassID,
			SubjectID: scope.SubjectID,
		})
		if err != nil {
			return nil, storageError("list scores", err)
		}
		return distributionOf(scope.String(), scoresOf(rows)), nil
	})
	if err != nil {
		return nil, err
	}
	return &dist, nil
}

func (s *analyticsService) StudentGPA(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.StudentGPA, error) {
	s.logger.Info("Computing student GPA", "student_id", studentID)

	if err := s.authorizeStudent(ctx, session, studentID, "view gpa"); err != nil {
		return nil, err
	}
	return s.gpa(ctx, studentID)
}

func (s *analyticsService) gpa(ctx context.Context, studentID uint) (*models.StudentGPA, error) {
	rows, err := s.repo.Grade().ListScores(ctx, nil, repositories.GradeFilters{StudentID: &studentID})
	if err != nil {
		return nil, storageError("list student scores", err)
	}

	result := &models.StudentGPA{StudentID: studentID}
	mean, ok := meanOf(scoresOf(rows))
	if !ok {
		result.NoData = true
		return result, nil
	}
	result.Mean = rounded(mean)
	result.GPA = gpaOf(mean)
	return result, nil
}

func (s *analyticsService) StudentRank(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.StudentRank, error) {
	s.logger.Info("Computing student rank", "student_id", studentID)

	if err := s.authorizeStudent(ctx, session, studentID, "view rank"); err != nil {
		return nil, err
	}

	ranking, err := s.ranking(ctx)
	if err != nil {
		return nil, err
	}
	return &models.StudentRank{
		StudentID: studentID,
		Rank:      rankOf(ranking, studentID),
		Of:        len(ranking),
	}, nil
}

// ranking is shared by every student's rank lookup, so it is cached whole
func (s *analyticsService) ranking(ctx context.Context) ([]rankingEntry, error) {
	var ranking []rankingEntry
	err := s.cache.Analytics.CacheOrExecute(ctx, "ranking", &ranking, s.cache.TTL, func() (interface{}, error) {
		rows, err := s.repo.Grade().ListScores(ctx, nil, repositories.GradeFilters{})
		if err != nil {
			return nil, storageError("list scores", err)
		}
		return rankStudents(rows), nil
	})
	if err != nil {
		return nil, err
	}
	return ranking, nil
}

func (s *analyticsService) authorizeStudent(ctx context.Context, session *models.SessionSnapshot, studentID uint, action string) error {
	_, target, err := s.owners.student(ctx, studentID)
	if err != nil {
		return err
	}
	return authorize(ctx, s.gate, s.logger, session, anyRole, target, action, "student", studentID)
}

// TeacherDashboard is scoped to classes whose owner is teacherID. Ownership
// is checked before existence; a teacher gets Denied for any other id.
func (s *analyticsService) TeacherDashboard(ctx context.Context, session *models.SessionSnapshot, teacherID uint) (*models.TeacherDashboard, error) {
	s.logger.Info("Building teacher dashboard", "teacher_id", teacherID)

	target := &models.OwnershipTarget{TeacherID: &teacherID}
	if err := authorize(ctx, s.gate, s.logger, session, staffRoles, target, "view dashboard", "teacher", teacherID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Teacher().GetByID(ctx, nil, teacherID); err != nil {
		return nil, lookupError("teacher", teacherID, err)
	}

	classes, err := s.repo.Class().ListByTeacher(ctx, nil, teacherID)
	if err != nil {
		return nil, storageError("list teacher classes", err)
	}

	classIDs := make([]uint, 0, len(classes))
	for _, c := range classes {
		classIDs = append(classIDs, c.ID)
	}

	totalSubjects, err := s.repo.Subject().CountByClasses(ctx, nil, classIDs)
	if err != nil {
		return nil, storageError("count subjects", err)
	}
	totalStudents, err := s.repo.Student().CountByClasses(ctx, nil, classIDs)
	if err != nil {
		return nil, storageError("count students", err)
	}

	rows, err := s.repo.Grade().ListScores(ctx, nil, repositories.GradeFilters{ClassIDs: classIDs})
	if err != nil {
		return nil, storageError("list class scores", err)
	}

	dashboard := &models.TeacherDashboard{
		TeacherID:        teacherID,
		TotalClasses:     len(classes),
		TotalSubjects:    totalSubjects,
		TotalStudents:    totalStudents,
		PerClassAverages: classAverages(classes, rows),
	}
	if mean, ok := meanOf(scoresOf(rows)); ok {
		dashboard.OverallAverage = rounded(mean)
	}
	return dashboard, nil
}

func classAverages(classes []*models.Class, rows []repositories.ScoreRow) []models.ClassAverage {
	byClass := make(map[uint][]float64)
	for _, r := range rows {
		if r.ClassID != nil {
			byClass[*r.ClassID] = append(byClass[*r.ClassID], r.Score)
		}
	}

	averages := make([]models.ClassAverage, 0, len(classes))
	for _, c := range classes {
		averages = append(averages, buildClassAverage(c.ID, c.Name, byClass[c.ID]))
	}
	return averages
}

func (s *analyticsService) StudentDashboard(ctx context.Context, session *models.SessionSnapshot, studentID uint) (*models.StudentDashboard, error) {
	s.logger.Info("Building student dashboard", "student_id", studentID)

	if err := s.authorizeStudent(ctx, session, studentID, "view dashboard"); err != nil {
		return nil, err
	}

	scores, err := s.repo.Grade().ListSubjectScores(ctx, nil, studentID)
	if err != nil {
		return nil, storageError("list subject scores", err)
	}
	if scores == nil {
		scores = []models.SubjectScore{}
	}

	gpa, err := s.gpa(ctx, studentID)
	if err != nil {
		return nil, err
	}

	ranking, err := s.ranking(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.ledger.Summarize(ctx, session, studentID)
	if err != nil {
		return nil, err
	}

	return &models.StudentDashboard{
		StudentID:         studentID,
		PerSubjectScores:  scores,
		GPA:               gpa.GPA,
		Rank:              rankOf(ranking, studentID),
		AttendanceSummary: *summary,
	}, nil
}

// AdminOverview reports school-wide counters, per-class averages and the
// overall distribution
func (s *analyticsService) AdminOverview(ctx context.Context, session *models.SessionSnapshot) (*models.AdminOverview, error) {
	s.logger.Info("Building admin overview")

	if err := authorize(ctx, s.gate, s.logger, session, adminOnly, nil, "view overview", "school", 0); err != nil {
		return nil, err
	}

	var overview models.AdminOverview
	err := s.cache.Stats.CacheOrExecute(ctx, "overview", &overview, s.cache.TTL, func() (interface{}, error) {
		return s.buildOverview(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

func (s *analyticsService) buildOverview(ctx context.Context) (*models.AdminOverview, error) {
	counts, err := s.repo.Dashboard().GetCounts(ctx, nil)
	if err != nil {
		return nil, storageError("count school", err)
	}

	classes, err := s.repo.Class().List(ctx, nil)
	if err != nil {
		return nil, storageError("list classes", err)
	}
	rows, err := s.repo.Grade().ListScores(ctx, nil, repositories.GradeFilters{})
	if err != nil {
		return nil, storageError("list scores", err)
	}

	return &models.AdminOverview{
		TotalStudents: counts.Students,
		TotalTeachers: counts.Teachers,
		TotalClasses:  counts.Classes,
		TotalSubjects: counts.Subjects,
		ClassAverages: classAverages(classes, rows),
		Distribution:  distributionOf(DistributionScope{}.String(), scoresOf(rows)),
	}, nil
}
