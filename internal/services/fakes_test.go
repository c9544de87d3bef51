package services

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

// memStore is an in-memory stand-in for the postgres repositories
type memStore struct {
	mu sync.Mutex

	users      map[uint]*models.User
	teachers   map[uint]*models.Teacher
	classes    map[uint]*models.Class
	students   map[uint]*models.Student
	subjects   map[uint]*models.Subject
	attendance []*models.AttendanceRecord
	grades     map[uint]*models.GradeRecord
	audit      []*models.AuditLog

	nextID uint

	// failGrades makes every grade repository call fail
	failGrades error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uint]*models.User),
		teachers: make(map[uint]*models.Teacher),
		classes:  make(map[uint]*models.Class),
		students: make(map[uint]*models.Student),
		subjects: make(map[uint]*models.Subject),
		grades:   make(map[uint]*models.GradeRecord),
		nextID:   1000,
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) User() repositories.UserRepository             { return fakeUsers{m} }
func (m *memStore) Teacher() repositories.TeacherRepository       { return fakeTeachers{m} }
func (m *memStore) Class() repositories.ClassRepository           { return fakeClasses{m} }
func (m *memStore) Student() repositories.StudentRepository       { return fakeStudents{m} }
func (m *memStore) Subject() repositories.SubjectRepository       { return fakeSubjects{m} }
func (m *memStore) Attendance() repositories.AttendanceRepository { return fakeAttendance{m} }
func (m *memStore) Grade() repositories.GradeRepository           { return fakeGrades{m} }
func (m *memStore) Audit() repositories.AuditRepository           { return fakeAudit{m} }
func (m *memStore) Dashboard() repositories.DashboardRepository   { return fakeDashboard{m} }

func (m *memStore) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *memStore) Ping(ctx context.Context) error { return nil }
func (m *memStore) Close() error                   { return nil }

// ===== SEEDING =====

func (m *memStore) addTeacher(id uint, name string) *models.Teacher {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &models.Teacher{ID: id, Name: name, Status: models.UserActive}
	m.teachers[id] = t
	return t
}

func (m *memStore) addClass(id uint, name string, teacherID *uint) *models.Class {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &models.Class{ID: id, Name: name, Year: 2025, TeacherID: teacherID}
	m.classes[id] = c
	return c
}

func (m *memStore) addStudent(id uint, name string, classID *uint) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Student{ID: id, Name: name, ClassID: classID, Status: models.StudentActive}
	m.students[id] = s
	return s
}

func (m *memStore) addSubject(id uint, name string, classID uint) *models.Subject {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Subject{ID: id, Name: name, ClassID: classID}
	m.subjects[id] = s
	return s
}

// addGrade stores a grade directly, ids increase in call order
func (m *memStore) addGrade(studentID, subjectID uint, classID *uint, score float64) *models.GradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	letter, remarks, _ := Classify(score)
	g := &models.GradeRecord{
		ID:        m.id(),
		StudentID: studentID,
		SubjectID: subjectID,
		ClassID:   classID,
		Term:      models.TermOne,
		Score:     score,
		Letter:    letter,
		Remarks:   remarks,
	}
	m.grades[g.ID] = g
	return g
}

func (m *memStore) addUser(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return u
}

// ===== USERS =====

type fakeUsers struct{ m *memStore }

func (f fakeUsers) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if user.ID == 0 {
		user.ID = f.m.id()
	}
	f.m.users[user.ID] = user
	return nil
}

func (f fakeUsers) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if u, ok := f.m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeUsers) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, u := range f.m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeUsers) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, u := range f.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTeachers struct{ m *memStore }

func (f fakeTeachers) Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if teacher.ID == 0 {
		teacher.ID = f.m.id()
	}
	f.m.teachers[teacher.ID] = teacher
	return nil
}

func (f fakeTeachers) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if t, ok := f.m.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeTeachers) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.Teacher, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, t := range f.m.teachers {
		if t.UserID != nil && *t.UserID == userID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ===== SCHOOL =====

type fakeClasses struct{ m *memStore }

func (f fakeClasses) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if class.ID == 0 {
		class.ID = f.m.id()
	}
	f.m.classes[class.ID] = class
	return nil
}

func (f fakeClasses) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if c, ok := f.m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeClasses) List(ctx context.Context, tx *gorm.DB) ([]*models.Class, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := make([]*models.Class, 0, len(f.m.classes))
	for _, c := range f.m.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeClasses) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Class, error) {
	all, _ := f.List(ctx, tx)
	out := make([]*models.Class, 0)
	for _, c := range all {
		if c.TeacherID != nil && *c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeStudents struct{ m *memStore }

func (f fakeStudents) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if student.ID == 0 {
		student.ID = f.m.id()
	}
	f.m.students[student.ID] = student
	return nil
}

func (f fakeStudents) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if s, ok := f.m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeStudents) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.Student, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, s := range f.m.students {
		if s.UserID != nil && *s.UserID == userID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeStudents) ListActiveByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.Student, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := make([]*models.Student, 0)
	for _, s := range f.m.students {
		if s.ClassID != nil && *s.ClassID == classID && s.Status == models.StudentActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeStudents) CountByClasses(ctx context.Context, tx *gorm.DB, classIDs []uint) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var n int64
	for _, s := range f.m.students {
		if s.ClassID != nil && slices.Contains(classIDs, *s.ClassID) {
			n++
		}
	}
	return n, nil
}

type fakeSubjects struct{ m *memStore }

func (f fakeSubjects) Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if subject.ID == 0 {
		subject.ID = f.m.id()
	}
	f.m.subjects[subject.ID] = subject
	return nil
}

func (f fakeSubjects) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if s, ok := f.m.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeSubjects) CountByClasses(ctx context.Context, tx *gorm.DB, classIDs []uint) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var n int64
	for _, s := range f.m.subjects {
		if slices.Contains(classIDs, s.ClassID) {
			n++
		}
	}
	return n, nil
}

// ===== ATTENDANCE =====

type fakeAttendance struct{ m *memStore }

func (f fakeAttendance) Upsert(ctx context.Context, tx *gorm.DB, record *models.AttendanceRecord) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, r := range f.m.attendance {
		if r.StudentID == record.StudentID && r.Date.Equal(record.Date) {
			r.Status = record.Status
			r.ClassID = record.ClassID
			r.UpdatedAt = time.Now()
			*record = *r
			return nil
		}
	}
	record.ID = f.m.id()
	stored := *record
	f.m.attendance = append(f.m.attendance, &stored)
	return nil
}

func (f fakeAttendance) GetByStudentAndDate(ctx context.Context, tx *gorm.DB, studentID uint, date time.Time) (*models.AttendanceRecord, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, r := range f.m.attendance {
		if r.StudentID == studentID && r.Date.Equal(date) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeAttendance) ListByClass(ctx context.Context, tx *gorm.DB, classID uint) ([]*models.AttendanceRecord, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := make([]*models.AttendanceRecord, 0)
	for _, r := range f.m.attendance {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f fakeAttendance) List(ctx context.Context, tx *gorm.DB, filters repositories.AttendanceFilters) ([]models.AttendanceView, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := make([]models.AttendanceView, 0)
	for _, r := range f.m.attendance {
		if filters.StudentID != nil && r.StudentID != *filters.StudentID {
			continue
		}
		if filters.ClassID != nil && r.ClassID != *filters.ClassID {
			continue
		}
		if filters.ClassIDs != nil && !slices.Contains(filters.ClassIDs, r.ClassID) {
			continue
		}
		view := models.AttendanceView{ID: r.ID, StudentID: r.StudentID, ClassID: r.ClassID, Date: r.Date, Status: r.Status}
		if s, ok := f.m.students[r.StudentID]; ok {
			view.StudentName = s.Name
		}
		if c, ok := f.m.classes[r.ClassID]; ok {
			view.ClassName = c.Name
		}
		out = append(out, view)
	}
	return out, nil
}

func (f fakeAttendance) CountByStatus(ctx context.Context, tx *gorm.DB, studentID uint) ([]repositories.StatusCount, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	counts := make(map[models.AttendanceStatus]int64)
	for _, r := range f.m.attendance {
		if r.StudentID == studentID {
			counts[r.Status]++
		}
	}
	out := make([]repositories.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, repositories.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

// ===== GRADES =====

type fakeGrades struct{ m *memStore }

func (f fakeGrades) Create(ctx context.Context, tx *gorm.DB, grade *models.GradeRecord) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failGrades != nil {
		return f.m.failGrades
	}
	grade.ID = f.m.id()
	stored := *grade
	f.m.grades[grade.ID] = &stored
	return nil
}

func (f fakeGrades) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.GradeRecord, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failGrades != nil {
		return nil, f.m.failGrades
	}
	if g, ok := f.m.grades[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeGrades) Update(ctx context.Context, tx *gorm.DB, id uint, patch models.GradePatch) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failGrades != nil {
		return f.m.failGrades
	}
	g, ok := f.m.grades[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if patch.Score != nil {
		g.Score = *patch.Score
	}
	if patch.Term != nil {
		g.Term = *patch.Term
	}
	if patch.Letter != nil {
		g.Letter = *patch.Letter
	}
	if patch.Remarks != nil {
		g.Remarks = *patch.Remarks
	}
	return nil
}

func (f fakeGrades) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failGrades != nil {
		return f.m.failGrades
	}
	if _, ok := f.m.grades[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.m.grades, id)
	return nil
}

func (f fakeGrades) matching(filters repositories.GradeFilters) []*models.GradeRecord {
	out := make([]*models.GradeRecord, 0)
	for _, g := range f.m.grades {
		if filters.StudentID != nil && g.StudentID != *filters.StudentID {
			continue
		}
		if filters.SubjectID != nil && g.SubjectID != *filters.SubjectID {
			continue
		}
		if filters.ClassID != nil && (g.ClassID == nil || *g.ClassID != *filters.ClassID) {
			continue
		}
		if filters.ClassIDs != nil && (g.ClassID == nil || !slices.Contains(filters.ClassIDs, *g.ClassID)) {
			continue
		}
		if filters.Term != nil && g.Term != *filters.Term {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeGrades) List(ctx context.Context, tx *gorm.DB, filters repositories.GradeFilters) ([]models.GradeView, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failGrades != nil {
		return nil, f.m.failGrades
	}
	views := make([]models.GradeView, 0)
	for _, g := range f.matching(filters) {
		view := models.GradeView{
			ID: g.ID, StudentID: g.StudentID, SubjectID: g.SubjectID, ClassID: g.ClassID,
			TeacherID: g.TeacherID, Term: g.Term, Score: g.Score, Letter: g.Letter, Remarks: g.Remarks,
		}
		if s, ok := f.m.students[g.StudentID]; ok {
			view.StudentName = s.Name
		}
		if s, ok := f.m.subjects[g.SubjectID]; ok {
			view.SubjectName = s.Name
		}
		if g.ClassID != nil {
			if c, ok := f.m.classes[*g.ClassID]; ok {
				name := c.Name
				view.ClassName = &name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (f fakeGrades) ListScores(ctx context.Context, tx *gorm.DB, filters repositories.GradeFilters) ([]repositories.ScoreRow, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failGrades != nil {
		return nil, f.m.failGrades
	}
	rows := make([]repositories.ScoreRow, 0)
	for _, g := range f.matching(filters) {
		rows = append(rows, repositories.ScoreRow{ID: g.ID, StudentID: g.StudentID, SubjectID: g.SubjectID, ClassID: g.ClassID, Score: g.Score})
	}
	return rows, nil
}

func (f fakeGrades) ListSubjectScores(ctx context.Context, tx *gorm.DB, studentID uint) ([]models.SubjectScore, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failGrades != nil {
		return nil, f.m.failGrades
	}
	out := make([]models.SubjectScore, 0)
	for _, g := range f.matching(repositories.GradeFilters{StudentID: &studentID}) {
		score := models.SubjectScore{GradeID: g.ID, SubjectID: g.SubjectID, Term: g.Term, Score: g.Score, Letter: g.Letter, Remarks: g.Remarks}
		if s, ok := f.m.subjects[g.SubjectID]; ok {
			score.SubjectName = s.Name
		}
		out = append(out, score)
	}
	return out, nil
}

// ===== AUDIT / DASHBOARD =====

type fakeAudit struct{ m *memStore }

func (f fakeAudit) Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	f.m.audit = append(f.m.audit, entry)
	return nil
}

type fakeDashboard struct{ m *memStore }

func (f fakeDashboard) GetCounts(ctx context.Context, tx *gorm.DB) (*repositories.SchoolCounts, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	counts := &repositories.SchoolCounts{
		Teachers: int64(len(f.m.teachers)),
		Classes:  int64(len(f.m.classes)),
		Subjects: int64(len(f.m.subjects)),
	}
	for _, s := range f.m.students {
		if s.Status == models.StudentActive {
			counts.Students++
		}
	}
	return counts, nil
}

// ===== SESSIONS =====

func uintPtr(v uint) *uint { return &v }

func floatPtr(v float64) *float64 { return &v }

func adminSession() *models.SessionSnapshot {
	return &models.SessionSnapshot{Authenticated: true, UserID: 1, Role: models.RoleAdmin}
}

func teacherSession(teacherID uint) *models.SessionSnapshot {
	return &models.SessionSnapshot{Authenticated: true, UserID: 100 + teacherID, Role: models.RoleTeacher, EntityID: uintPtr(teacherID)}
}

func studentSession(studentID uint) *models.SessionSnapshot {
	return &models.SessionSnapshot{Authenticated: true, UserID: 500 + studentID, Role: models.RoleStudent, EntityID: uintPtr(studentID)}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *validator.Validator {
	return validator.New()
}

// schoolFixture seeds two teachers, each owning one class with a subject
// and students: teacher 5 owns class 1, teacher 7 owns class 2.
func schoolFixture(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	store.addTeacher(5, "Ms. Okafor")
	store.addTeacher(7, "Mr. Lindqvist")
	store.addClass(1, "Grade 10A", uintPtr(5))
	store.addClass(2, "Grade 11B", uintPtr(7))
	store.addSubject(10, "Mathematics", 1)
	store.addSubject(11, "Physics", 1)
	store.addSubject(20, "History", 2)
	store.addStudent(1, "Amara", uintPtr(1))
	store.addStudent(2, "Bruno", uintPtr(1))
	store.addStudent(3, "Chen", uintPtr(1))
	store.addStudent(4, "Dalia", uintPtr(2))
	return store
}
