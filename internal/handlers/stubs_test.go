package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/utils"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// stubAuthenticator maps raw token strings to sessions
type stubAuthenticator map[string]*models.SessionSnapshot

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.SessionSnapshot, error) {
	if session, ok := s[token]; ok {
		return session, nil
	}
	return nil, services.ErrInvalidSession
}

func uintPtr(v uint) *uint { return &v }

var (
	adminSession   = &models.SessionSnapshot{Authenticated: true, UserID: 1, Username: "admin", Role: models.RoleAdmin}
	teacherSession = &models.SessionSnapshot{Authenticated: true, UserID: 2, Username: "t.okafor", Role: models.RoleTeacher, EntityID: uintPtr(5)}
	studentSession = &models.SessionSnapshot{Authenticated: true, UserID: 3, Username: "amara", Role: models.RoleStudent, EntityID: uintPtr(1)}

	testTokens = stubAuthenticator{
		"admin-token":   adminSession,
		"teacher-token": teacherSession,
		"student-token": studentSession,
	}
)

type stubServiceManager struct {
	attendance *stubAttendance
	grade      *stubGrades
	analytics  *stubAnalytics
	auth       *stubAuth
	report     *stubReports
	healthErr  error
}

func newStubServiceManager() *stubServiceManager {
	return &stubServiceManager{
		attendance: &stubAttendance{},
		grade:      &stubGrades{},
		analytics:  &stubAnalytics{},
		auth:       &stubAuth{},
		report:     &stubReports{},
	}
}

func (m *stubServiceManager) Gate() services.AccessControlGate { return services.NewAccessControlGate() }
func (m *stubServiceManager) Attendance() services.AttendanceService { return m.attendance }
func (m *stubServiceManager) Grade() services.GradeService { return m.grade }
func (m *stubServiceManager) Analytics() services.AnalyticsService { return m.analytics }
func (m *stubServiceManager) Auth() services.AuthService { return m.auth }
func (m *stubServiceManager) Report() services.ReportService { return m.report }
func (m *stubServiceManager) Initialize(context.Context) error { return nil }
func (m *stubServiceManager) HealthCheck(context.Context) error { return m.healthErr }
func (m *stubServiceManager) Shutdown(context.Context) error { return nil }

type stubAttendance struct {
	err         error
	lastFilters repositories.AttendanceFilters
	lastSession *models.SessionSnapshot
}

func (s *stubAttendance) MarkAttendance(_ context.Context, session *models.SessionSnapshot, req *services.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	s.lastSession = session
	if s.err != nil {
		return nil, s.err
	}
	return &models.AttendanceRecord{ID: 1, StudentID: req.StudentID, Status: req.Status}, nil
}

func (s *stubAttendance) MarkBatch(_ context.Context, _ *models.SessionSnapshot, req *services.MarkBatchRequest) (*models.BatchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := &models.BatchResult{Succeeded: []uint{}, Failed: []models.BatchFailure{}}
	for _, e := range req.Entries {
		result.Succeeded = append(result.Succeeded, e.StudentID)
	}
	return result, nil
}

func (s *stubAttendance) GetByClass(context.Context, *models.SessionSnapshot, uint) ([]*models.AttendanceRecord, error) {
	return []*models.AttendanceRecord{}, s.err
}

func (s *stubAttendance) GetStudentsInClass(context.Context, *models.SessionSnapshot, uint) ([]*models.Student, error) {
	return []*models.Student{}, s.err
}

func (s *stubAttendance) Summarize(_ context.Context, _ *models.SessionSnapshot, studentID uint) (*models.AttendanceSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.AttendanceSummary{StudentID: studentID}, nil
}

func (s *stubAttendance) ListAll(_ context.Context, _ *models.SessionSnapshot, filters repositories.AttendanceFilters) ([]models.AttendanceView, error) {
	s.lastFilters = filters
	return []models.AttendanceView{}, s.err
}

type stubGrades struct {
	err         error
	lastFilters repositories.GradeFilters
	deleted     []uint
}

func (s *stubGrades) Classify(score float64) (models.GradeLetter, string, error) {
	return services.Classify(score)
}

func (s *stubGrades) AddGrade(_ context.Context, _ *models.SessionSnapshot, req *services.AddGradeRequest) (*models.GradeRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	letter, remarks, _ := services.Classify(*req.Score)
	return &models.GradeRecord{ID: 1001, StudentID: req.StudentID, SubjectID: req.SubjectID, Score: *req.Score, Letter: letter, Remarks: remarks}, nil
}

func (s *stubGrades) UpdateGrade(_ context.Context, _ *models.SessionSnapshot, gradeID uint, req *services.UpdateGradeRequest) (*models.GradeRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.GradeRecord{ID: gradeID, Score: *req.Score}, nil
}

func (s *stubGrades) DeleteGrade(_ context.Context, _ *models.SessionSnapshot, gradeID uint) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, gradeID)
	return nil
}

func (s *stubGrades) GetByID(_ context.Context, _ *models.SessionSnapshot, gradeID uint) (*models.GradeRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.GradeRecord{ID: gradeID}, nil
}

func (s *stubGrades) ListAll(_ context.Context, _ *models.SessionSnapshot, filters repositories.GradeFilters) ([]models.GradeView, error) {
	s.lastFilters = filters
	return []models.GradeView{}, s.err
}

type stubAnalytics struct {
	err       error
	lastScope services.DistributionScope
}

func (s *stubAnalytics) ClassAverage(_ context.Context, _ *models.SessionSnapshot, classID uint) (*models.ClassAverage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ClassAverage{ClassID: classID, NoData: true}, nil
}

func (s *stubAnalytics) GradeDistribution(_ context.Context, _ *models.SessionSnapshot, scope services.DistributionScope) (*models.GradeDistribution, error) {
	s.lastScope = scope
	if s.err != nil {
		return nil, s.err
	}
	return &models.GradeDistribution{Scope: scope.String()}, nil
}

func (s *stubAnalytics) StudentGPA(_ context.Context, _ *models.SessionSnapshot, studentID uint) (*models.StudentGPA, error) {
	return &models.StudentGPA{StudentID: studentID, NoData: true}, s.err
}

func (s *stubAnalytics) StudentRank(_ context.Context, _ *models.SessionSnapshot, studentID uint) (*models.StudentRank, error) {
	return &models.StudentRank{StudentID: studentID}, s.err
}

func (s *stubAnalytics) TeacherDashboard(_ context.Context, _ *models.SessionSnapshot, teacherID uint) (*models.TeacherDashboard, error) {
	return &models.TeacherDashboard{TeacherID: teacherID}, s.err
}

func (s *stubAnalytics) StudentDashboard(context.Context, *models.SessionSnapshot, uint) (*models.StudentDashboard, error) {
	return &models.StudentDashboard{}, s.err
}

func (s *stubAnalytics) AdminOverview(context.Context, *models.SessionSnapshot) (*models.AdminOverview, error) {
	return &models.AdminOverview{}, s.err
}

type stubAuth struct {
	users map[string]string
}

func (s *stubAuth) Login(_ context.Context, username, credential string) (*models.SessionSnapshot, error) {
	if pw, ok := s.users[username]; ok && pw == credential {
		return teacherSession, nil
	}
	return nil, services.ErrUnauthorized
}

func (s *stubAuth) SessionForUser(context.Context, *models.User) (*models.SessionSnapshot, error) {
	return nil, services.ErrInvalidSession
}

func (s *stubAuth) HashCredential(plain string) (string, error) { return plain, nil }

type stubReports struct {
	err error
}

func (s *stubReports) ExportGrades(context.Context, *models.SessionSnapshot, repositories.GradeFilters) ([]byte, error) {
	return []byte("PK-grades"), s.err
}

func (s *stubReports) ExportClassAttendance(context.Context, *models.SessionSnapshot, uint) ([]byte, error) {
	return []byte("PK-attendance"), s.err
}
